package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{
		"products.html",
		"product_details.html",
		"loading.html",
		"error.html",
		"cart.html",
		"wishlist.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "৳ 1500", price(1500))
	assert.Equal(t, "৳ 12.5", price(12.5))
}

func TestPageURL(t *testing.T) {
	q := url.Values{"search": {"oud"}, "page": {"1"}}

	assert.Equal(t, "/products?page=3&search=oud", pageURL("/products", q, 3))
	assert.Equal(t, "1", q.Get("page"))
}
