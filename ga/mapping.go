package ga

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/trackforge/gatag/facade"
)

// mappedProps maps properties onto custom metric, dimension and content
// grouping slots. Groups apply in that order, so a slot claimed by two
// groups keeps the later group's value. Zero numbers are mapped; booleans
// are stringified so false survives the presence check.
func mappedProps(cfg Config, props facade.Properties) map[string]any {
	out := map[string]any{}
	for _, group := range []map[string]string{cfg.Metrics, cfg.Dimensions, cfg.ContentGroupings} {
		for prop, slot := range group {
			v := props.Get(prop)
			if b, ok := v.(bool); ok {
				v = strconv.FormatBool(b)
			}
			if mappable(v) {
				out[slot] = v
			}
		}
	}
	return out
}

// mappable reports whether a mapped value should be kept: any truthy value,
// plus the number zero.
func mappable(v any) bool {
	if facade.Truthy(v) {
		return true
	}
	switch v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// formatValue rounds an event value to the whole number the vendor expects.
// Negative values clamp to zero.
func formatValue(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Round(v))
}

// pagePath returns the page path, with the query string appended when
// includeSearch is set.
func pagePath(props facade.Properties, includeSearch bool) string {
	path := props.String("path")
	if includeSearch {
		if search := props.String("search"); search != "" {
			path += search
		}
	}
	return path
}

// compact removes nil values from a payload. Zero numbers and empty strings
// placed in a payload deliberately stay.
func compact(m map[string]any) map[string]any {
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}
	return m
}

// setCampaignFields copies the non-empty campaign fields into the payload.
// The term field maps to the vendor's keyword slot.
func setCampaignFields(payload map[string]any, c facade.Campaign) {
	if c.Name != "" {
		payload["campaignName"] = c.Name
	}
	if c.Source != "" {
		payload["campaignSource"] = c.Source
	}
	if c.Medium != "" {
		payload["campaignMedium"] = c.Medium
	}
	if c.Content != "" {
		payload["campaignContent"] = c.Content
	}
	if c.Term != "" {
		payload["campaignKeyword"] = c.Term
	}
}

// strOrNil returns the string, or nil when empty so compact drops it.
func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// floatOrNil returns the value when present, nil otherwise.
func floatOrNil(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// firstString returns the first non-empty string.
func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// actionRevenue resolves the revenue for an enhanced e-commerce action:
// total first, then revenue. When neither is set, an order completion
// reports an explicit zero and every other action omits the field.
func actionRevenue(t *facade.Track) any {
	if total, ok := t.Total(); ok && total != 0 {
		return total
	}
	if revenue, ok := t.Revenue(); ok && revenue != 0 {
		return revenue
	}
	if strings.EqualFold(t.Event, "order completed") {
		return 0.0
	}
	return nil
}

// checkoutOptions joins the payment and shipping methods into the action's
// option field. Returns nil when neither is present.
func checkoutOptions(t *facade.Track) any {
	var opts []string
	if v := t.Properties.String("paymentMethod"); v != "" {
		opts = append(opts, v)
	}
	if v := t.Properties.String("shippingMethod"); v != "" {
		opts = append(opts, v)
	}
	if len(opts) == 0 {
		return nil
	}
	return strings.Join(opts, ", ")
}

// buildProductFieldObject builds the product payload for ec:addProduct.
// product may be nil for single-product events, in which case the event's
// own properties describe the product. Brand, variant and coupon are
// product-level fields; a line item without its own coupon carries none
// even when the order has one.
func buildProductFieldObject(t, product *facade.Track) map[string]any {
	if product == nil {
		product = t
	}
	return compact(map[string]any{
		"id":       strOrNil(firstString(product.ProductID(), product.ID(), product.SKU())),
		"name":     strOrNil(product.Name()),
		"category": strOrNil(product.Category()),
		"quantity": product.Quantity(),
		"price":    floatOrNil(product.Price()),
		"brand":    strOrNil(product.Properties.String("brand")),
		"variant":  strOrNil(product.Properties.String("variant")),
		"currency": product.Currency(),
		"coupon":   strOrNil(product.Coupon()),
	})
}

// buildImpressionFieldObject builds the impression payload for
// ec:addImpression. Returns nil when the product has neither an id nor a
// name, since the vendor rejects such impressions.
func buildImpressionFieldObject(index int, t, product *facade.Track) map[string]any {
	if firstString(product.ProductID(), product.SKU()) == "" && product.Name() == "" {
		return nil
	}
	return compact(map[string]any{
		"id":       strOrNil(firstString(product.ProductID(), product.SKU())),
		"name":     strOrNil(product.Name()),
		"category": strOrNil(firstString(product.Category(), t.Category())),
		"list":     firstString(t.Properties.String("list_id"), t.Category(), "search results"),
		"brand":    strOrNil(product.Properties.String("brand")),
		"variant":  strOrNil(product.Properties.String("variant")),
		"price":    floatOrNil(product.Price()),
		"position": index + 1,
	})
}

// buildActionFieldObject builds the action payload for ec:setAction.
// Checkout actions carry a step (default 1) and the checkout options.
func buildActionFieldObject(t *facade.Track, actionType string) map[string]any {
	payload := map[string]any{
		"id":          strOrNil(t.OrderID()),
		"affiliation": strOrNil(t.Properties.String("affiliation")),
		"revenue":     actionRevenue(t),
		"tax":         floatOrNil(t.Tax()),
		"list":        strOrNil(t.Properties.String("list")),
		"shipping":    floatOrNil(t.Shipping()),
		"coupon":      strOrNil(t.Coupon()),
	}
	if actionType == "checkout" || actionType == "checkout_option" {
		step := 1
		if n, ok := t.Properties.Int("step"); ok && n != 0 {
			step = n
		}
		payload["step"] = step
		payload["option"] = checkoutOptions(t)
	}
	return compact(payload)
}

// buildPromoFieldObject builds the promotion payload for ec:addPromo.
func buildPromoFieldObject(t *facade.Track) map[string]any {
	return compact(map[string]any{
		"id":       strOrNil(firstString(t.PromotionID(), t.ID())),
		"name":     strOrNil(t.Name()),
		"creative": strOrNil(t.Properties.String("creative")),
		"position": t.Properties.Get("position"),
	})
}

// joinRefinements flattens a list of {type, value} refinements into a
// "type:value,type:value" string.
func joinRefinements(list any) string {
	var parts []string
	entries, _ := list.([]any)
	if entries == nil {
		if typed, ok := list.([]map[string]any); ok {
			for _, e := range typed {
				entries = append(entries, e)
			}
		}
	}
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			if p, okp := entry.(facade.Properties); okp {
				m = map[string]any(p)
			} else {
				continue
			}
		}
		props := facade.Properties(m)
		parts = append(parts, fmt.Sprintf("%s:%s", props.String("type"), refinementValue(props.Get("value"))))
	}
	return strings.Join(parts, ",")
}

func refinementValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
