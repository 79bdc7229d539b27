// Package shopstate holds each shopper's cart and wishlist.
package shopstate

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
)

var ErrOutOfStock = errors.New("product is out of stock")

// Store keeps carts and wishlists per shopper session. Adding a product that
// is already in the cart raises its quantity; adding one that is already
// wishlisted changes nothing. Removing an absent product is not an error.
type Store interface {
	AddToCart(ctx context.Context, sessionID string, p models.Product) error
	RemoveFromCart(ctx context.Context, sessionID, productID string) error
	Cart(ctx context.Context, sessionID string) ([]models.CartItem, error)

	AddToWishlist(ctx context.Context, sessionID string, p models.Product) error
	RemoveFromWishlist(ctx context.Context, sessionID, productID string) error
	Wishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error)
}

// MoveToCart adds p to the cart and then drops it from the wishlist, whether
// or not it was wishlisted. Out of stock products are refused.
func MoveToCart(ctx context.Context, s Store, sessionID string, p models.Product) error {
	const op = "shopstate.MoveToCart"

	if !p.Status {
		return fmt.Errorf("%s: %w: %s", op, ErrOutOfStock, p.ID)
	}
	if err := s.AddToCart(ctx, sessionID, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.RemoveFromWishlist(ctx, sessionID, p.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ToggleWishlist removes p from the wishlist when it is there and adds it
// otherwise. added reports which one happened.
func ToggleWishlist(ctx context.Context, s Store, sessionID string, p models.Product) (added bool, err error) {
	const op = "shopstate.ToggleWishlist"

	items, err := s.Wishlist(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if IsWishlisted(items, p.ID) {
		if err := s.RemoveFromWishlist(ctx, sessionID, p.ID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	if err := s.AddToWishlist(ctx, sessionID, p); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func IsWishlisted(items []models.WishlistItem, productID string) bool {
	for _, item := range items {
		if item.Product.ID == productID {
			return true
		}
	}
	return false
}

// CartCount is the number of units in the cart.
func CartCount(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// CartTotal is the price of every unit in the cart.
func CartTotal(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}
