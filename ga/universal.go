package ga

import (
	"github.com/trackforge/gatag/facade"
)

// universal implements the modern tag: a global command function taking a
// command name plus arguments, with keyed payload objects and an optional
// named tracker prefixing every command.
type universal struct {
	i *Integration
}

func (u *universal) initialize() {
	cfg := u.i.cfg

	if cfg.NameTracker {
		u.i.trackerName = TrackerName + "."
	}

	createOpts := map[string]any{
		"cookieDomain":        cfg.Domain,
		"sampleRate":          cfg.SampleRate,
		"siteSpeedSampleRate": cfg.SiteSpeedSampleRate,
		"allowLinker":         true,
	}
	if cfg.NameTracker {
		createOpts["name"] = TrackerName
	}
	u.i.push("create", cfg.TrackingID, createOpts)

	if cfg.AnonymizeIP {
		u.i.call("set", "anonymizeIp", true)
	}
	if cfg.SendUserID && u.i.user.ID != "" {
		u.i.call("set", "userId", u.i.user.ID)
	}

	if cfg.Optimize != "" {
		u.i.call("require", cfg.Optimize)
	}
	if cfg.DoubleClick {
		u.i.call("require", "displayfeatures")
	}
	if cfg.EnhancedLinkAttribution {
		u.i.call("require", "linkid", "linkid.js")
	}

	// The user id doubles as a custom dimension so it reaches every hit.
	traits := u.i.user.Traits.Clone()
	if u.i.user.ID != "" {
		traits["id"] = u.i.user.ID
	}
	if custom := mappedProps(cfg, traits); len(custom) > 0 {
		u.i.call("set", custom)
	}

	u.i.loader("library")
}

func (u *universal) loaded() bool {
	return u.i.transportReady()
}

func (u *universal) page(p *facade.Page) {
	cfg := u.i.cfg
	props := p.Properties
	name := p.FullName()
	path := pagePath(props, cfg.IncludeSearch)
	title := firstString(name, props.String("title"))
	referrer := p.Referrer()

	// Stored for later track calls on the same page.
	u.i.category = p.Category

	pageview := map[string]any{
		"page":     strOrNil(path),
		"title":    strOrNil(title),
		"location": strOrNil(props.String("url")),
	}
	setCampaignFields(pageview, p.Context.Campaign)

	if custom := mappedProps(cfg, props); len(custom) > 0 {
		if cfg.SetAllMappedProps {
			u.i.call("set", custom)
		} else {
			for k, v := range custom {
				pageview[k] = v
			}
		}
	}

	payload := map[string]any{
		"page":  strOrNil(path),
		"title": strOrNil(title),
	}
	if referrer != "" {
		payload["referrer"] = referrer
	}
	u.i.call("set", compact(payload))

	// Only the first page view on a pageload carries the full location;
	// later ones would misattribute referral traffic.
	if u.i.pageCalled {
		delete(pageview, "location")
	}

	u.i.call("send", "pageview", compact(pageview))

	if p.Category != "" && cfg.TrackCategorizedPages {
		u.track(p.Track(p.Category), facade.Properties{"nonInteraction": 1})
	}
	if name != "" && cfg.TrackNamedPages {
		u.track(p.Track(name), facade.Properties{"nonInteraction": 1})
	}

	u.i.pageCalled = true
}

func (u *universal) identify(id *facade.Identify) {
	if u.i.cfg.SendUserID && id.UserID != "" {
		u.i.call("set", "userId", id.UserID)
	}
	if custom := mappedProps(u.i.cfg, id.Traits); len(custom) > 0 {
		u.i.call("set", custom)
	}
}

func (u *universal) track(t *facade.Track, override facade.Properties) {
	cfg := u.i.cfg
	props := t.Properties

	// Event value prefers an explicit value, falling back to revenue.
	value, ok := t.Value()
	if !ok || value == 0 {
		value, _ = t.Revenue()
	}

	payload := map[string]any{
		"eventAction":    t.Event,
		"eventCategory":  firstString(t.Category(), u.i.category, "All"),
		"eventLabel":     strOrNil(t.Label()),
		"eventValue":     formatValue(value),
		"nonInteraction": u.nonInteraction(t, override),
	}
	setCampaignFields(payload, t.Context.Campaign)

	if custom := mappedProps(cfg, props); len(custom) > 0 {
		if cfg.SetAllMappedProps {
			u.i.call("set", custom)
		} else {
			for k, v := range custom {
				payload[k] = v
			}
		}
	}

	u.i.call("send", "event", compact(payload))
}

// nonInteraction resolves the non-interaction flag: an explicit property on
// the event wins, then the per-call override, then the event's integration
// options, then the configuration.
func (u *universal) nonInteraction(t *facade.Track, override facade.Properties) bool {
	if v := t.Properties.Get("nonInteraction"); v != nil {
		return facade.Truthy(v)
	}
	if v := override.Get("nonInteraction"); v != nil {
		return facade.Truthy(v)
	}
	if v := t.IntegrationOptions(Name).Get("nonInteraction"); v != nil {
		return facade.Truthy(v)
	}
	return u.i.cfg.NonInteraction
}

func (u *universal) orderCompleted(t *facade.Track) {
	orderID := t.OrderID()
	if orderID == "" {
		u.i.logger.Debug("dropping order without id", "event", t.Event)
		return
	}

	total, ok := t.Total()
	if !ok || total == 0 {
		total, _ = t.Revenue()
	}

	if !u.i.ecommerce {
		u.i.call("require", "ecommerce")
		u.i.ecommerce = true
	}

	u.i.call("ecommerce:addTransaction", compact(map[string]any{
		"affiliation": strOrNil(t.Properties.String("affiliation")),
		"shipping":    floatOrNil(t.Shipping()),
		"revenue":     total,
		"tax":         floatOrNil(t.Tax()),
		"id":          orderID,
		"currency":    t.Currency(),
	}))

	for _, product := range t.Products() {
		item := facade.ProductTrack(t, product)
		u.i.call("ecommerce:addItem", compact(map[string]any{
			"category": strOrNil(item.Category()),
			"quantity": item.Quantity(),
			"price":    floatOrNil(item.Price()),
			"name":     strOrNil(item.Name()),
			"sku":      strOrNil(item.SKU()),
			"id":       orderID,
			"currency": item.Currency(),
		}))
	}

	u.i.call("ecommerce:send")
}

// Without the enhanced e-commerce plugin the remaining commerce events have
// no dedicated mapping and fall back to plain events.

func (u *universal) orderUpdated(t *facade.Track)          { u.track(t, nil) }
func (u *universal) orderRefunded(t *facade.Track)         { u.track(t, nil) }
func (u *universal) checkoutStarted(t *facade.Track)       { u.track(t, nil) }
func (u *universal) checkoutStepViewed(t *facade.Track)    { u.track(t, nil) }
func (u *universal) checkoutStepCompleted(t *facade.Track) { u.track(t, nil) }
func (u *universal) productAdded(t *facade.Track)          { u.track(t, nil) }
func (u *universal) productRemoved(t *facade.Track)        { u.track(t, nil) }
func (u *universal) productViewed(t *facade.Track)         { u.track(t, nil) }
func (u *universal) productClicked(t *facade.Track)        { u.track(t, nil) }
func (u *universal) promotionViewed(t *facade.Track)       { u.track(t, nil) }
func (u *universal) promotionClicked(t *facade.Track)      { u.track(t, nil) }
func (u *universal) productListViewed(t *facade.Track)     { u.track(t, nil) }
func (u *universal) productListFiltered(t *facade.Track)   { u.track(t, nil) }
