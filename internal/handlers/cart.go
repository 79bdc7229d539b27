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

type productForm struct {
	ProductID string `form:"productId" binding:"required"`
	Next      string `form:"next"`
}

// AddToCart moves a product into the cart and out of the wishlist.
func AddToCart(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart"

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

		if err := shopstate.MoveToCart(c.Request.Context(), d.Store, middleware.SessionID(c), p); err != nil {
			_ = c.Error(err)
			return
		}

		d.publish(c, models.EventCartAdded, p)
		d.Log.Info("cart add", zap.String("route", route), zap.String("productId", id))
		redirectBack(c, form.Next, "/cart")
	}
}

func RemoveFromCart(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/:id/remove"
		id := strings.TrimSpace(c.Param("id"))

		if err := d.Store.RemoveFromCart(c.Request.Context(), middleware.SessionID(c), id); err != nil {
			_ = c.Error(err)
			return
		}

		d.publish(c, models.EventCartRemoved, models.Product{ID: id})
		d.Log.Info("cart remove", zap.String("route", route), zap.String("productId", id))
		redirectBack(c, c.PostForm("next"), "/cart")
	}
}

func CartPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Store.Cart(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.HTML(http.StatusOK, "cart.html", d.page(c, "Cart", gin.H{
			"Items": items,
			"Total": shopstate.CartTotal(items),
		}))
	}
}

func CartAPI(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Store.Cart(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":  items,
			"count": shopstate.CartCount(items),
			"total": shopstate.CartTotal(items),
		})
	}
}
