package ga

import (
	"github.com/trackforge/gatag/facade"
)

// classic implements the legacy tag: positional command tuples appended to
// a global queue, with no named trackers and no keyed payloads.
type classic struct {
	i *Integration
}

const linkAttributionPlugin = "https://www.google-analytics.com/plugins/ga/inpage_linkid.js"

func (c *classic) initialize() {
	cfg := c.i.cfg

	c.i.push("_setAccount", cfg.TrackingID)
	c.i.push("_setAllowLinker", true)

	if cfg.AnonymizeIP {
		c.i.push("_gat._anonymizeIp")
	}
	if cfg.Domain != "" {
		c.i.push("_setDomainName", cfg.Domain)
	}
	if cfg.SiteSpeedSampleRate != 0 {
		c.i.push("_setSiteSpeedSampleRate", cfg.SiteSpeedSampleRate)
	}
	if cfg.EnhancedLinkAttribution {
		c.i.push("_require", "inpage_linkid", linkAttributionPlugin)
	}
	for _, domain := range cfg.IgnoredReferrers {
		c.i.push("_addIgnoredRef", domain)
	}

	if cfg.DoubleClick {
		c.i.loader("double click")
	} else {
		c.i.loader("https")
	}
}

func (c *classic) loaded() bool {
	return c.i.transportReady()
}

func (c *classic) page(p *facade.Page) {
	name := p.FullName()

	c.i.push("_trackPageview", strOrNil(pagePath(p.Properties, c.i.cfg.IncludeSearch)))

	if p.Category != "" && c.i.cfg.TrackCategorizedPages {
		c.track(p.Track(p.Category), facade.Properties{"nonInteraction": 1})
	}
	if name != "" && c.i.cfg.TrackNamedPages {
		c.track(p.Track(name), facade.Properties{"nonInteraction": 1})
	}
}

// The legacy tag has no user-scoped fields to set.
func (c *classic) identify(id *facade.Identify) {}

func (c *classic) track(t *facade.Track, override facade.Properties) {
	opts := override
	if opts == nil {
		opts = t.IntegrationOptions(Name)
	}

	// Event value prefers revenue, falling back to an explicit value.
	value, ok := t.Revenue()
	if !ok || value == 0 {
		value, _ = t.Value()
	}

	nonInteraction := facade.Truthy(t.Properties.Get("nonInteraction")) ||
		facade.Truthy(opts.Get("nonInteraction"))

	c.i.push("_trackEvent",
		firstString(c.i.category, t.Category(), "All"),
		t.Event,
		strOrNil(t.Label()),
		formatValue(value),
		nonInteraction,
	)
}

func (c *classic) orderCompleted(t *facade.Track) {
	orderID := t.OrderID()
	if orderID == "" {
		c.i.logger.Debug("dropping order without id", "event", t.Event)
		return
	}

	total, ok := t.Total()
	if !ok || total == 0 {
		total, _ = t.Revenue()
	}

	c.i.push("_addTrans",
		orderID,
		strOrNil(t.Properties.String("affiliation")),
		total,
		floatOrNil(t.Tax()),
		floatOrNil(t.Shipping()),
		strOrNil(t.City()),
		strOrNil(t.State()),
		strOrNil(t.Country()),
	)

	for _, product := range t.Products() {
		item := &facade.Track{Properties: product}
		c.i.push("_addItem",
			orderID,
			strOrNil(item.SKU()),
			strOrNil(item.Name()),
			strOrNil(item.Category()),
			floatOrNil(item.Price()),
			item.Quantity(),
		)
	}

	c.i.push("_set", "currencyCode", t.Currency())
	c.i.push("_trackTrans")
}

// The legacy tag predates the dedicated commerce mappings; everything else
// falls back to plain events.

func (c *classic) orderUpdated(t *facade.Track)          { c.track(t, nil) }
func (c *classic) orderRefunded(t *facade.Track)         { c.track(t, nil) }
func (c *classic) checkoutStarted(t *facade.Track)       { c.track(t, nil) }
func (c *classic) checkoutStepViewed(t *facade.Track)    { c.track(t, nil) }
func (c *classic) checkoutStepCompleted(t *facade.Track) { c.track(t, nil) }
func (c *classic) productAdded(t *facade.Track)          { c.track(t, nil) }
func (c *classic) productRemoved(t *facade.Track)        { c.track(t, nil) }
func (c *classic) productViewed(t *facade.Track)         { c.track(t, nil) }
func (c *classic) productClicked(t *facade.Track)        { c.track(t, nil) }
func (c *classic) promotionViewed(t *facade.Track)       { c.track(t, nil) }
func (c *classic) promotionClicked(t *facade.Track)      { c.track(t, nil) }
func (c *classic) productListViewed(t *facade.Track)     { c.track(t, nil) }
func (c *classic) productListFiltered(t *facade.Track)   { c.track(t, nil) }
