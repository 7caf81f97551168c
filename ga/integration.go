package ga

import (
	"fmt"
	"log/slog"

	"github.com/trackforge/gatag/facade"
	"github.com/trackforge/gatag/transport"
)

// Loader loads a vendor script tag. The integration invokes it once during
// initialize with the tag name to load; tests and headless deployments can
// leave it unset.
type Loader func(tag string)

// variant is the mode-specific behavior behind the integration surface. The
// binding is decided once at construction from the configuration: legacy
// tag, modern tag, or modern tag with the enhanced e-commerce plugin.
type variant interface {
	initialize()
	loaded() bool
	page(p *facade.Page)
	identify(id *facade.Identify)
	track(t *facade.Track, override facade.Properties)
	orderCompleted(t *facade.Track)
	orderUpdated(t *facade.Track)
	orderRefunded(t *facade.Track)
	checkoutStarted(t *facade.Track)
	checkoutStepViewed(t *facade.Track)
	checkoutStepCompleted(t *facade.Track)
	productAdded(t *facade.Track)
	productRemoved(t *facade.Track)
	productViewed(t *facade.Track)
	productClicked(t *facade.Track)
	promotionViewed(t *facade.Track)
	promotionClicked(t *facade.Track)
	productListViewed(t *facade.Track)
	productListFiltered(t *facade.Track)
}

// Integration translates normalized analytics events into vendor calls on
// the injected transport. It is not safe for concurrent use; callers
// serialize events the way a page's event loop would.
type Integration struct {
	cfg       Config
	transport transport.Transport
	loader    Loader
	logger    *slog.Logger
	user      facade.User

	impl variant

	// trackerName is the command prefix for the named tracker, including
	// the trailing dot, or "" for the default tracker.
	trackerName string

	initialized bool
	pageCalled  bool
	ecommerce   bool
	enhanced    bool
	category    string
}

// New creates an Integration bound to the mode the configuration selects.
// The configuration is taken as given: an empty or malformed tracking id is
// passed through to the vendor unchanged, so callers that want rejection up
// front run Config.Validate themselves.
func New(cfg Config, t transport.Transport, logger *slog.Logger) (*Integration, error) {
	if t == nil {
		return nil, fmt.Errorf("ga: transport is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	i := &Integration{
		cfg:       cfg,
		transport: t,
		loader:    func(string) {},
		logger:    logger.With("component", "ga", "integration", Name),
	}

	switch {
	case cfg.Classic:
		i.impl = &classic{i: i}
	case cfg.EnhancedEcommerce:
		i.impl = &enhanced{universal{i: i}}
	default:
		i.impl = &universal{i: i}
	}
	return i, nil
}

// SetLoader sets the script tag loader used at initialize.
func (i *Integration) SetLoader(fn Loader) {
	if fn != nil {
		i.loader = fn
	}
}

// SetUser sets the identified user consulted at initialize time.
func (i *Integration) SetUser(u facade.User) {
	i.user = u
}

// Initialize emits the tracker setup sequence and loads the vendor tag.
// Events dispatched before Initialize are dropped.
func (i *Integration) Initialize() {
	i.impl.initialize()
	i.initialized = true
}

// Loaded reports whether the vendor tag has finished loading, per the
// transport's readiness signal.
func (i *Integration) Loaded() bool {
	return i.impl.loaded()
}

// ready guards event dispatch on initialization.
func (i *Integration) ready(op string) bool {
	if !i.initialized {
		i.logger.Warn("dropping event before initialize", "operation", op)
		return false
	}
	return true
}

// Page sends a page view.
func (i *Integration) Page(p *facade.Page) {
	if i.ready("page") {
		i.impl.page(p)
	}
}

// Identify applies the identified user to the tracker.
func (i *Integration) Identify(id *facade.Identify) {
	if i.ready("identify") {
		i.impl.identify(id)
	}
}

// Track sends a custom event.
func (i *Integration) Track(t *facade.Track) {
	if i.ready("track") {
		i.impl.track(t, nil)
	}
}

// OrderCompleted records a completed order.
func (i *Integration) OrderCompleted(t *facade.Track) {
	if i.ready("order completed") {
		i.impl.orderCompleted(t)
	}
}

// OrderUpdated records an updated order.
func (i *Integration) OrderUpdated(t *facade.Track) {
	if i.ready("order updated") {
		i.impl.orderUpdated(t)
	}
}

// OrderRefunded records a refunded order.
func (i *Integration) OrderRefunded(t *facade.Track) {
	if i.ready("order refunded") {
		i.impl.orderRefunded(t)
	}
}

// CheckoutStarted records the start of checkout.
func (i *Integration) CheckoutStarted(t *facade.Track) {
	if i.ready("checkout started") {
		i.impl.checkoutStarted(t)
	}
}

// CheckoutStepViewed records a viewed checkout step.
func (i *Integration) CheckoutStepViewed(t *facade.Track) {
	if i.ready("checkout step viewed") {
		i.impl.checkoutStepViewed(t)
	}
}

// CheckoutStepCompleted records a completed checkout step.
func (i *Integration) CheckoutStepCompleted(t *facade.Track) {
	if i.ready("checkout step completed") {
		i.impl.checkoutStepCompleted(t)
	}
}

// ProductAdded records a product added to the cart.
func (i *Integration) ProductAdded(t *facade.Track) {
	if i.ready("product added") {
		i.impl.productAdded(t)
	}
}

// ProductRemoved records a product removed from the cart.
func (i *Integration) ProductRemoved(t *facade.Track) {
	if i.ready("product removed") {
		i.impl.productRemoved(t)
	}
}

// ProductViewed records a product detail view.
func (i *Integration) ProductViewed(t *facade.Track) {
	if i.ready("product viewed") {
		i.impl.productViewed(t)
	}
}

// ProductClicked records a product click.
func (i *Integration) ProductClicked(t *facade.Track) {
	if i.ready("product clicked") {
		i.impl.productClicked(t)
	}
}

// PromotionViewed records a promotion impression.
func (i *Integration) PromotionViewed(t *facade.Track) {
	if i.ready("promotion viewed") {
		i.impl.promotionViewed(t)
	}
}

// PromotionClicked records a promotion click.
func (i *Integration) PromotionClicked(t *facade.Track) {
	if i.ready("promotion clicked") {
		i.impl.promotionClicked(t)
	}
}

// ProductListViewed records product impressions for a viewed list.
func (i *Integration) ProductListViewed(t *facade.Track) {
	if i.ready("product list viewed") {
		i.impl.productListViewed(t)
	}
}

// ProductListFiltered records product impressions for a filtered list.
func (i *Integration) ProductListFiltered(t *facade.Track) {
	if i.ready("product list filtered") {
		i.impl.productListFiltered(t)
	}
}

// push emits a raw vendor call.
func (i *Integration) push(command string, args ...any) {
	i.transport.Push(transport.Call{Command: command, Args: args})
}

// call emits a vendor call under the tracker namespace.
func (i *Integration) call(command string, args ...any) {
	i.push(i.trackerName+command, args...)
}

// transportReady reports the transport's readiness signal, defaulting to
// true for transports that do not expose one.
func (i *Integration) transportReady() bool {
	if r, ok := i.transport.(transport.ReadyReporter); ok {
		return r.Ready()
	}
	return true
}
