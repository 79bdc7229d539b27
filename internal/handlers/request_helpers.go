package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/commerce"
	"storefront/internal/events"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/querycache"
	"storefront/internal/shopstate"
)

// Catalog is the read side the pages need.
type Catalog interface {
	Product(ctx context.Context, id string, wait time.Duration) querycache.Result[models.Product]
	Products(ctx context.Context, categoryKey string, wait time.Duration) querycache.Result[[]models.Product]
}

// Deps is what every handler shares.
type Deps struct {
	Catalog Catalog
	Store   shopstate.Store
	Events  events.Publisher
	Log     *zap.Logger

	SiteName         string
	// LoadingThreshold is how long a page waits for the commerce API
	// before it renders the loading page instead.
	LoadingThreshold time.Duration
	PageSize         int
	Now              func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// page adds the fields the layout needs to data.
func (d *Deps) page(c *gin.Context, title string, data gin.H) gin.H {
	data["Title"] = d.SiteName + " | " + title
	data["Site"] = d.SiteName
	data["CartCount"] = d.cartCount(c)
	return data
}

func (d *Deps) cartCount(c *gin.Context) int {
	items, err := d.Store.Cart(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		d.Log.Warn("cart count unavailable", zap.Error(err))
		return 0
	}
	return shopstate.CartCount(items)
}

func (d *Deps) renderLoading(c *gin.Context, title string) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "loading.html", gin.H{
		"Title":   d.SiteName + " | " + title,
		"Refresh": 1,
	})
}

func (d *Deps) publish(c *gin.Context, t models.ShopperEventType, p models.Product) {
	d.Events.Publish(c.Request.Context(), models.NewShopperEvent(t, middleware.SessionID(c), p, d.now()))
}

// productError maps a product query failure onto the errors the boundary
// knows how to render.
func productError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, commerce.ErrProductNotFound):
		return fmt.Errorf("%w: %s", catalog.ErrInvalidProductID, id)
	default:
		return fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
	}
}

// loadProduct waits for the product without a loading budget; actions need
// the full record.
func (d *Deps) loadProduct(c *gin.Context, id string) (models.Product, error) {
	res := d.Catalog.Product(c.Request.Context(), id, 0)
	if res.Pending() {
		return models.Product{}, fmt.Errorf("%w: %w", catalog.ErrUnavailable, c.Request.Context().Err())
	}
	if err := productError(id, res.Err); err != nil {
		return models.Product{}, err
	}
	return res.Data, nil
}

func bindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
}

// redirectBack answers a form post with 303 to next when it is a local path.
func redirectBack(c *gin.Context, next, fallback string) {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		next = fallback
	}
	c.Redirect(http.StatusSeeOther, next)
}

// RegisterValidation makes validation messages use form field names.
func RegisterValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}
