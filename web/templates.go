// Package web holds the storefront's HTML templates.
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"

	"storefront/internal/catalog"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page template. Pages are addressed by file name,
// e.g. "products.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.html")
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":     price,
		"number":    number,
		"sortModes": catalog.SortModes,
		"pageURL":   pageURL,
	}
}

// price renders an amount in taka, e.g. "৳ 1500".
func price(v float64) string {
	return "৳ " + number(v)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// pageURL is the listing URL for page n, keeping the other query values.
func pageURL(path string, q url.Values, n int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = append([]string(nil), v...)
	}
	next.Set("page", strconv.Itoa(n))
	return path + "?" + next.Encode()
}
