package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/shopstate"
)

// ToggleWishlist adds the product to the wishlist, or removes it when it is
// already there.
func ToggleWishlist(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist"

		var form productForm
		if err := c.ShouldBind(&form); err != nil {
			bindError(c, err)
			return
		}
		id := strings.TrimSpace(form.ProductID)

		p, err := d.loadProduct(c, id)
		if err != nil {
			_ = c.Error(err)
			return
		}

		added, err := shopstate.ToggleWishlist(c.Request.Context(), d.Store, middleware.SessionID(c), p)
		if err != nil {
			_ = c.Error(err)
			return
		}

		event := models.EventWishlistRemoved
		if added {
			event = models.EventWishlistAdded
		}
		d.publish(c, event, p)
		d.Log.Info("wishlist toggle", zap.String("route", route), zap.String("productId", id), zap.Bool("added", added))

		redirectBack(c, form.Next, "/product/"+id)
	}
}

func WishlistPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Store.Wishlist(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.HTML(http.StatusOK, "wishlist.html", d.page(c, "Wishlist", gin.H{"Items": items}))
	}
}

func WishlistAPI(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Store.Wishlist(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}
