package ga

import (
	"strings"

	"github.com/trackforge/gatag/facade"
)

// HandleTrack routes a track event to its commerce mapping by event name.
// Matching is case-insensitive; unrecognized events go out as plain events.
func (i *Integration) HandleTrack(t *facade.Track) {
	switch strings.ToLower(t.Event) {
	case "order completed":
		i.OrderCompleted(t)
	case "order updated":
		i.OrderUpdated(t)
	case "order refunded":
		i.OrderRefunded(t)
	case "checkout started":
		i.CheckoutStarted(t)
	case "checkout step viewed":
		i.CheckoutStepViewed(t)
	case "checkout step completed":
		i.CheckoutStepCompleted(t)
	case "product added":
		i.ProductAdded(t)
	case "product removed":
		i.ProductRemoved(t)
	case "product viewed":
		i.ProductViewed(t)
	case "product clicked":
		i.ProductClicked(t)
	case "promotion viewed":
		i.PromotionViewed(t)
	case "promotion clicked":
		i.PromotionClicked(t)
	case "product list viewed":
		i.ProductListViewed(t)
	case "product list filtered":
		i.ProductListFiltered(t)
	default:
		i.Track(t)
	}
}
