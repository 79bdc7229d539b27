package shopstate

import (
	"context"
	"slices"
	"sync"
	"time"

	"storefront/internal/models"
)

var _ Store = (*MemoryStore)(nil)

const maxSweepInterval = time.Minute

type basket struct {
	cart      []models.CartItem
	wishlist  []models.WishlistItem
	updatedAt time.Time
}

func (b *basket) empty() bool {
	return len(b.cart) == 0 && len(b.wishlist) == 0
}

// MemoryStore keeps baskets in process memory. It is lost on restart.
// Baskets untouched for ttl are dropped, as are baskets left empty.
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	ttl       time.Duration
	lastSweep time.Time
	baskets   map[string]*basket
}

// NewMemoryStore returns a store whose baskets expire ttl after their last
// update. A ttl <= 0 keeps them until they are emptied.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		ttl:     ttl,
		baskets: make(map[string]*basket),
	}
}

func (s *MemoryStore) expired(b *basket, now time.Time) bool {
	return s.ttl > 0 && now.Sub(b.updatedAt) >= s.ttl
}

// sweep drops expired baskets, at most once per interval. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < min(s.ttl, maxSweepInterval) {
		return
	}
	s.lastSweep = now
	for id, b := range s.baskets {
		if s.expired(b, now) {
			delete(s.baskets, id)
		}
	}
}

// lookup returns the live basket of a session. Callers hold mu.
func (s *MemoryStore) lookup(sessionID string) (*basket, bool) {
	now := s.now()
	s.sweep(now)

	b, ok := s.baskets[sessionID]
	if !ok {
		return nil, false
	}
	if s.expired(b, now) {
		delete(s.baskets, sessionID)
		return nil, false
	}
	return b, true
}

func (s *MemoryStore) basket(sessionID string) *basket {
	b, ok := s.lookup(sessionID)
	if !ok {
		b = &basket{}
		s.baskets[sessionID] = b
	}
	return b
}

// touch records an update, or drops the basket once nothing is left in it.
func (s *MemoryStore) touch(sessionID string, b *basket) {
	if b.empty() {
		delete(s.baskets, sessionID)
		return
	}
	b.updatedAt = s.now()
}

func (s *MemoryStore) AddToCart(ctx context.Context, sessionID string, p models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	defer s.touch(sessionID, b)

	for i := range b.cart {
		if b.cart[i].Product.ID == p.ID {
			b.cart[i].Quantity++
			b.cart[i].Product = p
			return nil
		}
	}
	b.cart = append(b.cart, models.CartItem{Product: p, Quantity: 1, AddedAt: s.now()})
	return nil
}

func (s *MemoryStore) RemoveFromCart(ctx context.Context, sessionID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}
	b.cart = slices.DeleteFunc(b.cart, func(item models.CartItem) bool {
		return item.Product.ID == productID
	})
	s.touch(sessionID, b)
	return nil
}

func (s *MemoryStore) Cart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(sessionID)
	if !ok {
		return []models.CartItem{}, nil
	}
	return append(make([]models.CartItem, 0, len(b.cart)), b.cart...), nil
}

func (s *MemoryStore) AddToWishlist(ctx context.Context, sessionID string, p models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	defer s.touch(sessionID, b)

	if IsWishlisted(b.wishlist, p.ID) {
		return nil
	}
	b.wishlist = append(b.wishlist, models.WishlistItem{Product: p, AddedAt: s.now()})
	return nil
}

func (s *MemoryStore) RemoveFromWishlist(ctx context.Context, sessionID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}
	b.wishlist = slices.DeleteFunc(b.wishlist, func(item models.WishlistItem) bool {
		return item.Product.ID == productID
	})
	s.touch(sessionID, b)
	return nil
}

func (s *MemoryStore) Wishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(sessionID)
	if !ok {
		return []models.WishlistItem{}, nil
	}
	return append(make([]models.WishlistItem, 0, len(b.wishlist)), b.wishlist...), nil
}
