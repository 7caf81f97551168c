package ga

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/trackforge/gatag/facade"
	"github.com/trackforge/gatag/transport"
)

// newClassicQueue creates a classic-mode Integration against a legacy
// command queue and returns both.
func newClassicQueue(t *testing.T, cfg Config) (*Integration, *transport.LegacyQueue) {
	t.Helper()
	cfg.Classic = true
	if cfg.TrackingID == "" {
		cfg.TrackingID = "UA-27033709-5"
	}
	queue := transport.NewLegacyQueue()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	i, err := New(cfg, queue, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i, queue
}

func assertTuples(t *testing.T, got, want [][]any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestClassic_Initialize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnonymizeIP = true
	cfg.Domain = "example.com"
	cfg.SiteSpeedSampleRate = 42
	i, queue := newClassicQueue(t, cfg)

	var loadedTag string
	i.SetLoader(func(tag string) { loadedTag = tag })
	i.Initialize()

	assertTuples(t, queue.Tuples(), [][]any{
		{"_setAccount", "UA-27033709-5"},
		{"_setAllowLinker", true},
		{"_gat._anonymizeIp"},
		{"_setDomainName", "example.com"},
		{"_setSiteSpeedSampleRate", 42},
	})
	if loadedTag != "https" {
		t.Fatalf("got tag %q", loadedTag)
	}
}

func TestClassic_Initialize_IgnoredReferrers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Domain = ""
	cfg.SiteSpeedSampleRate = 0
	cfg.IgnoredReferrers = []string{"domain.com", "www.domain.com"}
	i, queue := newClassicQueue(t, cfg)
	i.Initialize()

	assertTuples(t, queue.Tuples(), [][]any{
		{"_setAccount", "UA-27033709-5"},
		{"_setAllowLinker", true},
		{"_addIgnoredRef", "domain.com"},
		{"_addIgnoredRef", "www.domain.com"},
	})
}

func TestClassic_Initialize_DoubleClick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DoubleClick = true
	i, _ := newClassicQueue(t, cfg)

	var loadedTag string
	i.SetLoader(func(tag string) { loadedTag = tag })
	i.Initialize()

	if loadedTag != "double click" {
		t.Fatalf("got tag %q", loadedTag)
	}
}

func TestClassic_Page(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.Page(&facade.Page{Properties: facade.Properties{"path": "/docs", "search": "?q=go"}})

	assertTuples(t, queue.Tuples(), [][]any{
		{"_trackPageview", "/docs"},
	})
}

func TestClassic_Page_IncludeSearch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeSearch = true
	i, queue := newClassicQueue(t, cfg)
	i.Initialize()
	queue.Reset()

	i.Page(&facade.Page{Properties: facade.Properties{"path": "/docs", "search": "?q=go"}})

	assertTuples(t, queue.Tuples(), [][]any{
		{"_trackPageview", "/docs?q=go"},
	})
}

// TestClassic_Page_DerivedEvents verifies categorized and named page events
// go out as non-interaction legacy events.
func TestClassic_Page_DerivedEvents(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.Page(&facade.Page{Name: "Signup", Category: "Docs", Properties: facade.Properties{"path": "/docs/signup"}})

	tuples := queue.Tuples()
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples, got %v", tuples)
	}
	assertTuples(t, tuples[1:], [][]any{
		{"_trackEvent", "Docs", "Viewed Docs Page", nil, 0, true},
		{"_trackEvent", "Docs", "Viewed Docs Signup Page", nil, 0, true},
	})
}

func TestClassic_Track(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.Track(&facade.Track{Event: "Email Sent", Properties: facade.Properties{
		"category": "Email",
		"label":    "campaign-1",
		"value":    42,
	}})

	assertTuples(t, queue.Tuples(), [][]any{
		{"_trackEvent", "Email", "Email Sent", "campaign-1", 42, false},
	})
}

// TestClassic_Track_RevenueFirst verifies revenue wins over an explicit
// value on the legacy tag.
func TestClassic_Track_RevenueFirst(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.Track(&facade.Track{Event: "Upgraded", Properties: facade.Properties{
		"revenue": 9.99,
		"value":   42,
	}})

	tuples := queue.Tuples()
	if tuples[0][4] != 10 {
		t.Fatalf("got %v", tuples[0][4])
	}
}

// TestClassic_Identify verifies identify is a no-op on the legacy tag.
func TestClassic_Identify(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.Identify(&facade.Identify{UserID: "user-1", Traits: facade.Properties{"plan": "pro"}})

	if tuples := queue.Tuples(); len(tuples) != 0 {
		t.Fatalf("expected no tuples, got %v", tuples)
	}
}

func TestClassic_OrderCompleted(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.OrderCompleted(&facade.Track{
		Event: "order completed",
		Properties: facade.Properties{
			"orderId":  "780bc55",
			"total":    99.99,
			"tax":      20.99,
			"shipping": 13.99,
			"products": []any{
				map[string]any{"quantity": 1, "price": 24.75, "name": "my product", "sku": "p-298", "category": "cat 1"},
			},
		},
	})

	assertTuples(t, queue.Tuples(), [][]any{
		{"_addTrans", "780bc55", nil, 99.99, 20.99, 13.99, nil, nil, nil},
		{"_addItem", "780bc55", "p-298", "my product", "cat 1", 24.75, 1},
		{"_set", "currencyCode", "USD"},
		{"_trackTrans"},
	})
}

// TestClassic_OrderCompleted_NoOrderID verifies the order is silently
// dropped without an id.
func TestClassic_OrderCompleted_NoOrderID(t *testing.T) {
	i, queue := newClassicQueue(t, DefaultConfig())
	i.Initialize()
	queue.Reset()

	i.OrderCompleted(&facade.Track{Event: "order completed", Properties: facade.Properties{"total": 10.0}})

	if tuples := queue.Tuples(); len(tuples) != 0 {
		t.Fatalf("expected no tuples, got %v", tuples)
	}
}
