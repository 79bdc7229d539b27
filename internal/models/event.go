package models

import "time"

type ShopperEventType string

const (
	EventProductViewed   ShopperEventType = "product_viewed"
	EventCartAdded       ShopperEventType = "cart_added"
	EventCartRemoved     ShopperEventType = "cart_removed"
	EventWishlistAdded   ShopperEventType = "wishlist_added"
	EventWishlistRemoved ShopperEventType = "wishlist_removed"
)

// ShopperEvent records one storefront interaction for analytics.
type ShopperEvent struct {
	Type        ShopperEventType `json:"type"`
	SessionID   string           `json:"sessionId"`
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName,omitempty"`
	Category    string           `json:"category,omitempty"`
	Price       float64          `json:"price"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// NewShopperEvent fills the product fields of an event from p.
func NewShopperEvent(t ShopperEventType, sessionID string, p Product, at time.Time) ShopperEvent {
	return ShopperEvent{
		Type:        t,
		SessionID:   sessionID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Category:    p.Category,
		Price:       p.Price,
		OccurredAt:  at,
	}
}
