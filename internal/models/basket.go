package models

import "time"

// CartItem is a product held in a shopper's cart.
type CartItem struct {
	Product  Product   `bson:"product" json:"product"`
	Quantity int       `bson:"quantity" json:"quantity"`
	AddedAt  time.Time `bson:"addedAt" json:"addedAt"`
}

// WishlistItem is a product saved to a shopper's wishlist.
type WishlistItem struct {
	Product Product   `bson:"product" json:"product"`
	AddedAt time.Time `bson:"addedAt" json:"addedAt"`
}
