package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

type listingView struct {
	params   catalog.Params
	heading  string
	products []models.Product
	page     catalog.Page
}

func newListingView(q listingQuery, categoryKey string, source []models.Product, page, limit int) listingView {
	params := q.params()
	derived := catalog.Derive(source, params)
	items, pg := catalog.Paginate(derived, page, limit)

	return listingView{
		params:   params,
		heading:  catalog.Title(params, categoryKey, len(derived)),
		products: items,
		page:     pg,
	}
}

func bindListingQuery(c *gin.Context, pageSize int) (listingQuery, int, int, bool) {
	var q listingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return q, 0, 0, false
	}

	page, limit, err := parsePaginationParams(q.Page, q.Limit, pageSize)
	if err != nil {
		bindError(c, err)
		return q, 0, 0, false
	}
	return q, page, limit, true
}

/*
GET /products
GET /products/:key
- search, sort, inStock are applied in that order, then the page is cut
- a failed fetch renders as an empty listing
*/
func ProductsPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"

		q, page, limit, ok := bindListingQuery(c, d.PageSize)
		if !ok {
			return
		}
		categoryKey := strings.TrimSpace(c.Param("key"))

		res := d.Catalog.Products(c.Request.Context(), categoryKey, d.LoadingThreshold)
		if res.Pending() {
			d.renderLoading(c, "Products")
			return
		}

		source := res.Data
		if res.Err != nil {
			d.Log.Warn("product listing unavailable",
				zap.String("route", route),
				zap.String("category", categoryKey),
				zap.Error(res.Err),
			)
			source = nil
		}

		view := newListingView(q, categoryKey, source, page, limit)
		d.Log.Debug("listing rendered",
			zap.String("route", route),
			zap.String("category", categoryKey),
			zap.Int("total", view.page.Total),
		)

		c.HTML(http.StatusOK, "products.html", d.page(c, "Products", gin.H{
			"Heading":  view.heading,
			"Params":   view.params,
			"Path":     c.Request.URL.Path,
			"Query":    q.values(),
			"Products": view.products,
			"Page":     view.page,
		}))
	}
}

/*
GET /api/products
GET /api/products/:key
- response: data + title + pagination
*/
func ProductsAPI(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page, limit, ok := bindListingQuery(c, d.PageSize)
		if !ok {
			return
		}
		categoryKey := strings.TrimSpace(c.Param("key"))

		res := d.Catalog.Products(c.Request.Context(), categoryKey, 0)
		if res.Pending() {
			_ = c.Error(fmt.Errorf("%w: %w", catalog.ErrUnavailable, c.Request.Context().Err()))
			return
		}
		if res.Err != nil {
			_ = c.Error(fmt.Errorf("%w: %w", catalog.ErrUnavailable, res.Err))
			return
		}

		view := newListingView(q, categoryKey, res.Data, page, limit)
		c.JSON(http.StatusOK, gin.H{
			"data":       view.products,
			"title":      view.heading,
			"pagination": view.page,
		})
	}
}
