// Package transport models the vendor call surface as an injected
// dependency, so the mapping and payload logic can run against an in-memory
// recorder in tests and against real relays in production.
package transport

import "sync"

// Call is one vendor call: a command name plus its positional arguments.
// Keyed payloads travel as map[string]any arguments. Calls are emitted
// immediately and never retained by the integration core.
type Call struct {
	Command string `json:"command"`
	Args    []any  `json:"args,omitempty"`
}

// Transport receives vendor calls.
type Transport interface {
	Push(call Call)
}

// ReadyReporter is implemented by transports that can report whether the
// vendor tag has finished loading. The integration's loaded predicate polls
// it synchronously; retry and backoff belong to the caller.
type ReadyReporter interface {
	Ready() bool
}

// Func adapts a plain function to the Transport interface, mirroring the
// modern tag's global function surface.
type Func func(call Call)

// Push invokes the function.
func (f Func) Push(call Call) { f(call) }

// Recorder is an in-memory Transport that keeps every pushed call, in order.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	ready bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Push records the call.
func (r *Recorder) Push(call Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

// Calls returns a copy of all recorded calls in push order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset discards all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// SetReady sets the value returned by Ready.
func (r *Recorder) SetReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = ready
}

// Ready reports whether the simulated vendor tag has loaded.
func (r *Recorder) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// LegacyQueue models the legacy tag's global command queue: every call is
// appended as a [command, args...] tuple. Once the vendor script executes it
// drains the queue and processes tuples directly, which Hijack simulates.
type LegacyQueue struct {
	mu       sync.Mutex
	tuples   [][]any
	hijacked bool
}

// NewLegacyQueue creates an empty LegacyQueue.
func NewLegacyQueue() *LegacyQueue {
	return &LegacyQueue{}
}

// Push appends the call as a tuple.
func (q *LegacyQueue) Push(call Call) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tuple := make([]any, 0, len(call.Args)+1)
	tuple = append(tuple, call.Command)
	tuple = append(tuple, call.Args...)
	q.tuples = append(q.tuples, tuple)
}

// Tuples returns a copy of the queued tuples in push order.
func (q *LegacyQueue) Tuples() [][]any {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]any, len(q.tuples))
	copy(out, q.tuples)
	return out
}

// Reset discards all queued tuples.
func (q *LegacyQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tuples = nil
}

// Hijack marks the queue as taken over by the vendor script.
func (q *LegacyQueue) Hijack() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.hijacked = true
}

// Ready reports whether the vendor script has taken over the queue.
func (q *LegacyQueue) Ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hijacked
}
