package catalog

import "storefront/internal/models"

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

type Page struct {
	Number int `json:"page"`
	Size   int `json:"limit"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages }
func (p Page) Prev() int { return p.Number - 1 }
func (p Page) Next() int { return p.Number + 1 }

// Numbers lists the page numbers for the pagination control.
func (p Page) Numbers() []int {
	nums := make([]int, p.Pages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

// Paginate returns the items of the requested page. Out of range page
// numbers are clamped; an empty list has one empty page.
func Paginate(list []models.Product, number, size int) ([]models.Product, Page) {
	if size < 1 {
		size = DefaultPageSize
	}

	pages := (len(list) + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	number = min(max(number, 1), pages)

	start := (number - 1) * size
	end := min(start+size, len(list))

	return list[start:end], Page{
		Number: number,
		Size:   size,
		Total:  len(list),
		Pages:  pages,
	}
}
