package facade

// Campaign carries the UTM campaign fields from the event context.
type Campaign struct {
	Name    string `json:"name,omitempty"`
	Source  string `json:"source,omitempty"`
	Medium  string `json:"medium,omitempty"`
	Term    string `json:"term,omitempty"`
	Content string `json:"content,omitempty"`
}

// Context carries contextual data attached to an event by the dispatcher.
type Context struct {
	Campaign Campaign `json:"campaign,omitempty"`
}

// User is the currently identified user, consulted at initialize time for
// the user id and initial custom dimensions.
type User struct {
	ID     string     `json:"id,omitempty"`
	Traits Properties `json:"traits,omitempty"`
}

// Identify is a normalized identify call.
type Identify struct {
	UserID string     `json:"userId,omitempty"`
	Traits Properties `json:"traits,omitempty"`
}

// Page is a normalized page view event.
type Page struct {
	Name       string     `json:"name,omitempty"`
	Category   string     `json:"category,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Context    Context    `json:"context,omitempty"`
}

// FullName returns "{Category} {Name}" when both are set, the bare name
// otherwise. A categorized page without a name has no full name.
func (p *Page) FullName() string {
	if p.Category != "" && p.Name != "" {
		return p.Category + " " + p.Name
	}
	return p.Name
}

// Referrer returns the page's explicitly provided referrer, if any.
func (p *Page) Referrer() string {
	return p.Properties.String("referrer")
}

// Track synthesizes the derived "Viewed {name} Page" track event that
// categorized- and named-page tracking dispatch after a page view. The
// derived event carries the page's properties with the page name and
// category folded in, plus its context.
func (p *Page) Track(name string) *Track {
	props := p.Properties.Clone()
	if p.Name != "" {
		props["name"] = p.Name
	}
	if p.Category != "" {
		props["category"] = p.Category
	}
	return &Track{
		Event:      "Viewed " + name + " Page",
		Properties: props,
		Context:    p.Context,
	}
}

// Track is a normalized track event. Options holds per-integration option
// overrides keyed by integration name.
type Track struct {
	Event      string                `json:"event"`
	Properties Properties            `json:"properties,omitempty"`
	Context    Context               `json:"context,omitempty"`
	Options    map[string]Properties `json:"options,omitempty"`
}

// IntegrationOptions returns the option overrides addressed to the named
// integration, or nil when there are none.
func (t *Track) IntegrationOptions(name string) Properties {
	if t.Options == nil {
		return nil
	}
	return t.Options[name]
}

// Revenue returns the revenue property.
func (t *Track) Revenue() (float64, bool) { return t.Properties.Float("revenue") }

// Total returns the total property.
func (t *Track) Total() (float64, bool) { return t.Properties.Float("total") }

// Value returns the value property.
func (t *Track) Value() (float64, bool) { return t.Properties.Float("value") }

// Tax returns the tax property.
func (t *Track) Tax() (float64, bool) { return t.Properties.Float("tax") }

// Shipping returns the shipping property.
func (t *Track) Shipping() (float64, bool) { return t.Properties.Float("shipping") }

// Price returns the price property.
func (t *Track) Price() (float64, bool) { return t.Properties.Float("price") }

// Quantity returns the quantity property, defaulting to 1.
func (t *Track) Quantity() int {
	if n, ok := t.Properties.Int("quantity"); ok {
		return n
	}
	return 1
}

// Currency returns the currency property, defaulting to "USD".
func (t *Track) Currency() string {
	if c := t.Properties.String("currency"); c != "" {
		return c
	}
	return "USD"
}

// OrderID returns the order id property.
func (t *Track) OrderID() string { return t.Properties.String("orderId") }

// ID returns the id property.
func (t *Track) ID() string { return t.Properties.String("id") }

// SKU returns the sku property.
func (t *Track) SKU() string { return t.Properties.String("sku") }

// ProductID returns the product id property.
func (t *Track) ProductID() string { return t.Properties.String("product_id") }

// PromotionID returns the promotion id property.
func (t *Track) PromotionID() string { return t.Properties.String("promotion_id") }

// Name returns the name property.
func (t *Track) Name() string { return t.Properties.String("name") }

// Category returns the category property.
func (t *Track) Category() string { return t.Properties.String("category") }

// Label returns the label property.
func (t *Track) Label() string { return t.Properties.String("label") }

// Coupon returns the coupon property.
func (t *Track) Coupon() string { return t.Properties.String("coupon") }

// City returns the city property.
func (t *Track) City() string { return t.Properties.String("city") }

// State returns the state property.
func (t *Track) State() string { return t.Properties.String("state") }

// Country returns the country property.
func (t *Track) Country() string { return t.Properties.String("country") }

// Products returns the products list as property bags. Entries that are not
// objects are skipped.
func (t *Track) Products() []Properties {
	var out []Properties
	switch list := t.Properties.Get("products").(type) {
	case []Properties:
		return list
	case []map[string]any:
		for _, entry := range list {
			out = append(out, Properties(entry))
		}
	case []any:
		for _, entry := range list {
			if m, ok := asProperties(entry); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// ProductTrack builds the ephemeral per-line-item view used by the order and
// list payload builders: the raw product record is copied (the caller's map
// is never mutated) and its currency defaults to the parent's.
func ProductTrack(parent *Track, product Properties) *Track {
	props := product.Clone()
	if props.Get("currency") == nil {
		props["currency"] = parent.Currency()
	}
	return &Track{Properties: props}
}
