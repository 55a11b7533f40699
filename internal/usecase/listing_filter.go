package usecase

import (
	"strings"

	"emprende/internal/domain/entity"
)

// FilterProducts keeps the products whose name or description contains query (case-insensitive)
// and whose category equals category. An empty query or an empty/"Todas" category matches
// everything. Order is preserved.
func FilterProducts(products []*entity.Product, query, category string) []*entity.Product {
	needle := strings.ToLower(query)
	anyCategory := category == "" || category == entity.CategoryAll

	result := make([]*entity.Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		if !anyCategory && p.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		result = append(result, p)
	}
	return result
}
