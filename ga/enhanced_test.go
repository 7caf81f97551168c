package ga

import (
	"testing"

	"github.com/trackforge/gatag/facade"
)

// enhancedConfig returns a default configuration with the enhanced
// e-commerce plugin enabled.
func enhancedConfig() Config {
	cfg := DefaultConfig()
	cfg.EnhancedEcommerce = true
	return cfg
}

func TestEnhanced_ProductAdded(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.ProductAdded(&facade.Track{Event: "product added", Properties: facade.Properties{
		"sku":      "p-298",
		"name":     "my product",
		"category": "cat 1",
		"price":    24.75,
		"quantity": 1,
	}})

	calls := rec.Calls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[0], "require", "ec")
	assertCall(t, calls[1], "set", "&cu", "USD")
	assertCall(t, calls[2], "ec:addProduct", map[string]any{
		"id":       "p-298",
		"name":     "my product",
		"category": "cat 1",
		"price":    24.75,
		"quantity": 1,
		"currency": "USD",
	})
	assertCall(t, calls[3], "ec:setAction", "add", map[string]any{})
	assertCall(t, calls[4], "send", "event", "cat 1", "product added", map[string]any{"nonInteraction": 1})
}

// TestEnhanced_RequireOnce verifies the plugin is required once while the
// currency pin repeats per event.
func TestEnhanced_RequireOnce(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	tr := &facade.Track{Event: "product added", Properties: facade.Properties{"sku": "p-1", "currency": "CAD"}}
	i.ProductAdded(tr)
	rec.Reset()
	i.ProductAdded(tr)

	calls := rec.Calls()
	assertCall(t, calls[0], "set", "&cu", "CAD")
	for _, call := range calls {
		if call.Command == "require" {
			t.Fatalf("unexpected require: %v", call)
		}
	}
}

func TestEnhanced_ProductViewed(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.ProductViewed(&facade.Track{Event: "product viewed", Properties: facade.Properties{"sku": "p-1", "name": "my product"}})

	calls := rec.Calls()
	assertCall(t, calls[3], "ec:setAction", "detail", map[string]any{})
}

// TestEnhanced_FlushLabel verifies the trailing flush event carries the
// label positionally when present.
func TestEnhanced_FlushLabel(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.ProductRemoved(&facade.Track{Event: "product removed", Properties: facade.Properties{
		"sku":   "p-1",
		"label": "sale",
	}})

	calls := rec.Calls()
	assertCall(t, calls[4], "send", "event", "EnhancedEcommerce", "product removed", "sale", map[string]any{"nonInteraction": 1})
}

func TestEnhanced_CheckoutStarted(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.CheckoutStarted(&facade.Track{Event: "checkout started", Properties: facade.Properties{
		"currency": "CAD",
		"products": []any{
			map[string]any{"sku": "p-1", "name": "first", "quantity": 1},
			map[string]any{"sku": "p-2", "name": "second", "quantity": 2},
		},
	}})

	calls := rec.Calls()
	if len(calls) != 6 {
		t.Fatalf("expected 6 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[1], "set", "&cu", "CAD")
	assertCall(t, calls[2], "ec:addProduct", map[string]any{
		"id": "p-1", "name": "first", "quantity": 1, "currency": "CAD",
	})
	assertCall(t, calls[3], "ec:addProduct", map[string]any{
		"id": "p-2", "name": "second", "quantity": 2, "currency": "CAD",
	})
	assertCall(t, calls[4], "ec:setAction", "checkout", map[string]any{"step": 1})
	assertCall(t, calls[5], "send", "event", "EnhancedEcommerce", "checkout started", map[string]any{"nonInteraction": 1})
}

func TestEnhanced_CheckoutStepCompleted(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.CheckoutStepCompleted(&facade.Track{Event: "checkout step completed", Properties: facade.Properties{
		"currency":       "CAD",
		"step":           2,
		"paymentMethod":  "Visa",
		"shippingMethod": "FedEx",
	}})

	calls := rec.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[1], "set", "&cu", "CAD")
	assertCall(t, calls[2], "ec:setAction", "checkout_option", map[string]any{
		"step":   2,
		"option": "Visa, FedEx",
	})
	assertCall(t, calls[3], "send", "event", "Checkout", "Option")
}

// TestEnhanced_CheckoutStepCompleted_Gates verifies nothing is emitted
// without both a step and an option.
func TestEnhanced_CheckoutStepCompleted_Gates(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.CheckoutStepCompleted(&facade.Track{Event: "checkout step completed", Properties: facade.Properties{
		"shippingMethod": "FedEx",
	}})
	if calls := rec.Calls(); len(calls) != 0 {
		t.Fatalf("without step: expected no calls, got %v", calls)
	}

	i.CheckoutStepCompleted(&facade.Track{Event: "checkout step completed", Properties: facade.Properties{
		"step": 2,
	}})
	if calls := rec.Calls(); len(calls) != 0 {
		t.Fatalf("without option: expected no calls, got %v", calls)
	}
}

// TestEnhanced_OrderCompleted_Simple verifies an order with no amounts
// reports an explicit zero revenue.
func TestEnhanced_OrderCompleted_Simple(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.OrderCompleted(&facade.Track{Event: "order completed", Properties: facade.Properties{"orderId": "7306cc06"}})

	calls := rec.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:setAction", "purchase", map[string]any{
		"id":      "7306cc06",
		"revenue": 0.0,
	})
	assertCall(t, calls[3], "send", "event", "EnhancedEcommerce", "order completed", map[string]any{"nonInteraction": 1})
}

func TestEnhanced_OrderCompleted(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.OrderCompleted(&facade.Track{Event: "order completed", Properties: facade.Properties{
		"orderId":     "780bc55",
		"total":       99.9,
		"shipping":    13.99,
		"tax":         20.99,
		"currency":    "CAD",
		"coupon":      "coupon",
		"affiliation": "affiliation",
		"products": []any{
			map[string]any{"quantity": 1, "price": 24.75, "name": "my product", "category": "cat 1", "sku": "p-298"},
		},
	}})

	calls := rec.Calls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[1], "set", "&cu", "CAD")
	assertCall(t, calls[2], "ec:addProduct", map[string]any{
		"id":       "p-298",
		"name":     "my product",
		"category": "cat 1",
		"quantity": 1,
		"price":    24.75,
		"currency": "CAD",
	})
	assertCall(t, calls[3], "ec:setAction", "purchase", map[string]any{
		"id":          "780bc55",
		"affiliation": "affiliation",
		"revenue":     99.9,
		"tax":         20.99,
		"shipping":    13.99,
		"coupon":      "coupon",
	})
}

// TestEnhanced_OrderCompleted_ProductCoupon verifies the product payload
// carries the line item's own coupon, not the order's, and omits the field
// for items without one.
func TestEnhanced_OrderCompleted_ProductCoupon(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.OrderCompleted(&facade.Track{Event: "order completed", Properties: facade.Properties{
		"orderId": "780bc55",
		"total":   99.9,
		"coupon":  "coupon",
		"products": []any{
			map[string]any{"sku": "p-298", "coupon": "promo"},
			map[string]any{"sku": "p-299"},
		},
	}})

	calls := rec.Calls()
	if len(calls) != 6 {
		t.Fatalf("expected 6 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:addProduct", map[string]any{
		"id":       "p-298",
		"quantity": 1,
		"currency": "USD",
		"coupon":   "promo",
	})
	assertCall(t, calls[3], "ec:addProduct", map[string]any{
		"id":       "p-299",
		"quantity": 1,
		"currency": "USD",
	})
}

// TestEnhanced_OrderCompleted_NoOrderID verifies nothing is emitted without
// an order id, not even the plugin require.
func TestEnhanced_OrderCompleted_NoOrderID(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.OrderCompleted(&facade.Track{Event: "order completed", Properties: facade.Properties{"total": 10.0}})

	if calls := rec.Calls(); len(calls) != 0 {
		t.Fatalf("expected no calls, got %v", calls)
	}
}

func TestEnhanced_OrderRefunded(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.OrderRefunded(&facade.Track{Event: "order refunded", Properties: facade.Properties{"orderId": "780bc55"}})

	calls := rec.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:setAction", "refund", map[string]any{"id": "780bc55"})
}

func TestEnhanced_PromotionViewed(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.PromotionViewed(&facade.Track{Event: "promotion viewed", Properties: facade.Properties{
		"promotion_id": "PROMO_1234",
		"name":         "Summer Sale",
		"creative":     "summer_banner2",
		"position":     "banner_slot1",
	}})

	calls := rec.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:addPromo", map[string]any{
		"id":       "PROMO_1234",
		"name":     "Summer Sale",
		"creative": "summer_banner2",
		"position": "banner_slot1",
	})
}

func TestEnhanced_PromotionClicked(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.PromotionClicked(&facade.Track{Event: "promotion clicked", Properties: facade.Properties{
		"promotion_id": "PROMO_1234",
	}})

	calls := rec.Calls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[3], "ec:setAction", "promo_click", map[string]any{})
}

func TestEnhanced_ProductListViewed(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.ProductListViewed(&facade.Track{Event: "product list viewed", Properties: facade.Properties{
		"category": "cat 1",
		"products": []any{
			map[string]any{"product_id": "507f1f77bcf86cd799439011"},
			map[string]any{"price": 24.75},
		},
	}})

	calls := rec.Calls()
	// The anonymous product produces no impression.
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:addImpression", map[string]any{
		"id":       "507f1f77bcf86cd799439011",
		"category": "cat 1",
		"list":     "cat 1",
		"position": 1,
	})
}

func TestEnhanced_ProductListFiltered(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.ProductListFiltered(&facade.Track{Event: "product list filtered", Properties: facade.Properties{
		"category": "cat 1",
		"filters": []any{
			map[string]any{"type": "department", "value": "beauty"},
			map[string]any{"type": "price", "value": "under-$25"},
		},
		"sorts": []any{
			map[string]any{"type": "price", "value": "desc"},
		},
		"products": []any{
			map[string]any{"product_id": "507f1f77bcf86cd799439011"},
		},
	}})

	calls := rec.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d: %v", len(calls), calls)
	}
	assertCall(t, calls[2], "ec:addImpression", map[string]any{
		"id":       "507f1f77bcf86cd799439011",
		"category": "cat 1",
		"list":     "cat 1",
		"position": 1,
		"variant":  "department:beauty,price:under-$25::price:desc",
	})
}

// TestEnhanced_PageAndTrackUnchanged verifies the plugin leaves plain page
// and track behavior to the modern tag.
func TestEnhanced_PageAndTrackUnchanged(t *testing.T) {
	i, rec := initialized(t, enhancedConfig())

	i.Track(&facade.Track{Event: "Email Sent", Properties: facade.Properties{}})

	calls := rec.Calls()
	if len(calls) != 1 || calls[0].Command != "send" || calls[0].Args[0] != "event" {
		t.Fatalf("got %v", calls)
	}
}
