package catalog

import (
	"fmt"
	"strings"
)

var categoryLabels = map[string]string{
	"groceries": "groceries & foods",
}

// CategoryLabel is the display name of a category key.
func CategoryLabel(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	return key
}

// Title is the listing heading. A search wins over the category scope.
func Title(p Params, categoryKey string, count int) string {
	switch {
	case p.Search != "":
		return fmt.Sprintf("Search results for \"%s\" (%d)", strings.ToLower(p.Search), count)
	case categoryKey != "":
		return fmt.Sprintf("%s (%d)", CategoryLabel(categoryKey), count)
	default:
		return fmt.Sprintf("all products (%d)", count)
	}
}
