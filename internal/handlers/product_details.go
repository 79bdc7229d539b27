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

// ProductPage renders one product. Unknown ids surface as an invalid
// product id on the error page.
func ProductPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/:id"
		id := strings.TrimSpace(c.Param("id"))

		res := d.Catalog.Product(c.Request.Context(), id, d.LoadingThreshold)
		if res.Pending() {
			d.renderLoading(c, "Product")
			return
		}
		if err := productError(id, res.Err); err != nil {
			_ = c.Error(err)
			return
		}
		p := res.Data

		wishlist, err := d.Store.Wishlist(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		d.publish(c, models.EventProductViewed, p)
		d.Log.Debug("product rendered", zap.String("route", route), zap.String("productId", id))

		c.HTML(http.StatusOK, "product_details.html", d.page(c, p.Name, gin.H{
			"Product":    p,
			"Wishlisted": shopstate.IsWishlisted(wishlist, p.ID),
		}))
	}
}

func ProductAPI(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))

		p, err := d.loadProduct(c, id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": p})
	}
}
