package handlers

import "github.com/gin-gonic/gin"

// Register mounts the storefront pages and the JSON API on r.
func Register(r gin.IRouter, d *Deps) {
	r.GET("/", Home())

	r.GET("/products", ProductsPage(d))
	r.GET("/products/:key", ProductsPage(d))
	r.GET("/product/:id", ProductPage(d))

	r.GET("/cart", CartPage(d))
	r.POST("/cart", AddToCart(d))
	r.POST("/cart/:id/remove", RemoveFromCart(d))

	r.GET("/wishlist", WishlistPage(d))
	r.POST("/wishlist", ToggleWishlist(d))

	api := r.Group("/api")
	{
		api.GET("/products", ProductsAPI(d))
		api.GET("/products/:key", ProductsAPI(d))
		api.GET("/product/:id", ProductAPI(d))
		api.GET("/cart", CartAPI(d))
		api.GET("/wishlist", WishlistAPI(d))
	}
}
