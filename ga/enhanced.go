package ga

import (
	"github.com/trackforge/gatag/facade"
)

// enhanced layers the enhanced e-commerce plugin over the modern tag. Page,
// identify and plain track behavior come from universal; the commerce events
// map to plugin commands instead of plain events.
type enhanced struct {
	universal
}

// ensurePlugin requires the plugin on first use and pins the currency for
// the upcoming hit. The currency set repeats on every commerce event since
// each event may carry a different one.
func (e *enhanced) ensurePlugin(t *facade.Track) {
	if !e.i.enhanced {
		e.i.call("require", "ec")
		e.i.enhanced = true
	}
	e.i.call("set", "&cu", t.Currency())
}

// flush sends a non-interaction event carrying all staged plugin data.
// Staged products, impressions and actions only reach the vendor on the
// next hit, so every commerce event ends with one.
func (e *enhanced) flush(t *facade.Track) {
	args := []any{
		"event",
		firstString(t.Category(), "EnhancedEcommerce"),
		firstString(t.Event, "Action not defined"),
	}
	if label := t.Label(); label != "" {
		args = append(args, label)
	}
	args = append(args, map[string]any{"nonInteraction": 1})
	e.i.call("send", args...)
}

func (e *enhanced) productAdded(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addProduct", buildProductFieldObject(t, nil))
	e.i.call("ec:setAction", "add", buildActionFieldObject(t, "add"))
	e.flush(t)
}

func (e *enhanced) productRemoved(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addProduct", buildProductFieldObject(t, nil))
	e.i.call("ec:setAction", "remove", buildActionFieldObject(t, "remove"))
	e.flush(t)
}

func (e *enhanced) productViewed(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addProduct", buildProductFieldObject(t, nil))
	e.i.call("ec:setAction", "detail", buildActionFieldObject(t, "detail"))
	e.flush(t)
}

func (e *enhanced) productClicked(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addProduct", buildProductFieldObject(t, nil))
	e.i.call("ec:setAction", "click", buildActionFieldObject(t, "click"))
	e.flush(t)
}

// checkoutStarted maps to viewing the first checkout step.
func (e *enhanced) checkoutStarted(t *facade.Track) {
	e.checkoutStepViewed(t)
}

// orderUpdated re-stages the checkout; the vendor overrides the earlier
// step data.
func (e *enhanced) orderUpdated(t *facade.Track) {
	e.checkoutStepViewed(t)
}

func (e *enhanced) checkoutStepViewed(t *facade.Track) {
	e.ensurePlugin(t)

	for _, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		e.i.call("ec:addProduct", buildProductFieldObject(t, item))
	}

	e.i.call("ec:setAction", "checkout", buildActionFieldObject(t, "checkout"))
	e.flush(t)
}

func (e *enhanced) checkoutStepCompleted(t *facade.Track) {
	step, _ := t.Properties.Int("step")
	if step == 0 || checkoutOptions(t) == nil {
		e.i.logger.Debug("dropping checkout step without step or option", "event", t.Event)
		return
	}

	e.ensurePlugin(t)
	e.i.call("ec:setAction", "checkout_option", buildActionFieldObject(t, "checkout_option"))
	e.i.call("send", "event", "Checkout", "Option")
}

func (e *enhanced) orderCompleted(t *facade.Track) {
	if t.OrderID() == "" {
		e.i.logger.Debug("dropping order without id", "event", t.Event)
		return
	}

	e.ensurePlugin(t)

	for _, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		e.i.call("ec:addProduct", buildProductFieldObject(t, item))
	}

	e.i.call("ec:setAction", "purchase", buildActionFieldObject(t, "purchase"))
	e.flush(t)
}

func (e *enhanced) orderRefunded(t *facade.Track) {
	if t.OrderID() == "" {
		e.i.logger.Debug("dropping refund without id", "event", t.Event)
		return
	}

	e.ensurePlugin(t)

	// Without products the refund covers the whole order.
	for _, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		e.i.call("ec:addProduct", buildProductFieldObject(t, item))
	}

	e.i.call("ec:setAction", "refund", buildActionFieldObject(t, "refund"))
	e.flush(t)
}

func (e *enhanced) promotionViewed(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addPromo", buildPromoFieldObject(t))
	e.flush(t)
}

func (e *enhanced) promotionClicked(t *facade.Track) {
	e.ensurePlugin(t)
	e.i.call("ec:addPromo", buildPromoFieldObject(t))
	e.i.call("ec:setAction", "promo_click", map[string]any{})
	e.flush(t)
}

func (e *enhanced) productListViewed(t *facade.Track) {
	e.ensurePlugin(t)

	for idx, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		impression := buildImpressionFieldObject(idx, t, item)
		if impression == nil {
			continue
		}
		e.i.call("ec:addImpression", impression)
	}

	e.flush(t)
}

func (e *enhanced) productListFiltered(t *facade.Track) {
	filters := joinRefinements(t.Properties.Get("filters"))
	sorts := joinRefinements(t.Properties.Get("sorts"))

	e.ensurePlugin(t)

	for idx, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		impression := buildImpressionFieldObject(idx, t, item)
		if impression == nil {
			continue
		}
		impression["variant"] = filters + "::" + sorts
		e.i.call("ec:addImpression", impression)
	}

	e.flush(t)
}
