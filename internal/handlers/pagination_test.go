package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit, err = parsePaginationParams("3", "500", 20)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, limit)

	for _, tc := range [][2]string{{"0", ""}, {"x", ""}, {"", "-1"}, {"", "ten"}} {
		_, _, err := parsePaginationParams(tc[0], tc[1], 20)
		assert.ErrorIs(t, err, errInvalidPagination, tc)
	}
}

func TestParseToggle(t *testing.T) {
	for _, s := range []string{"true", "on", "1", " ON "} {
		assert.True(t, parseToggle(s), s)
	}
	for _, s := range []string{"", "false", "off", "yes"} {
		assert.False(t, parseToggle(s), s)
	}
}

func TestListingQueryValues(t *testing.T) {
	q := listingQuery{Search: " oud ", Sort: "2", InStock: "on", Page: "4", Limit: "10"}

	assert.Equal(t, "inStock=true&limit=10&search=oud&sort=2", q.values().Encode())
}
