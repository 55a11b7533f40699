package usecase

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"emprende/internal/domain/entity"
)

func names(products []*entity.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestFilterProductsExample(t *testing.T) {
	products := []*entity.Product{
		{Name: "Laptop", Description: "16GB RAM", Category: "Tecnología"},
		{Name: "Mesa", Description: "Madera de pino", Category: "Hogar"},
		{Name: "Funda", Description: "Para LAPtop de 15 pulgadas", Category: "Otros"},
	}

	assert.Equal(t, []string{"Laptop", "Funda"}, names(FilterProducts(products, "lap", entity.CategoryAll)))
	assert.Equal(t, []string{"Laptop"}, names(FilterProducts(products, "lap", "Tecnología")))
	assert.Equal(t, []string{"Mesa"}, names(FilterProducts(products, "", "Hogar")))
	assert.Equal(t, []string{"Laptop", "Mesa", "Funda"}, names(FilterProducts(products, "", "")))
	assert.Empty(t, FilterProducts(products, "bicicleta", entity.CategoryAll))
}

// matches restates the filter rule directly.
func matches(p *entity.Product, query, category string) bool {
	q := strings.ToLower(query)
	textOK := q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q)
	categoryOK := category == "" || category == entity.CategoryAll || p.Category == category
	return textOK && categoryOK
}

func TestFilterProductsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"Laptop", "mesa", "Silla", "camisa", "Balón", "café", "LAMPARA", "lap"}
	queries := []string{"", "lap", "LA", "a", "sil", "xyz", "é"}
	categories := append([]string{""}, entity.Categories...)

	for round := 0; round < 200; round++ {
		var products []*entity.Product
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			products = append(products, &entity.Product{
				ID:          fmt.Sprintf("p%d", i),
				Name:        words[rng.Intn(len(words))],
				Description: words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
				Category:    entity.Categories[1+rng.Intn(len(entity.Categories)-1)],
			})
		}
		query := queries[rng.Intn(len(queries))]
		category := categories[rng.Intn(len(categories))]

		got := FilterProducts(products, query, category)

		var want []*entity.Product
		for _, p := range products {
			if matches(p, query, category) {
				want = append(want, p)
			}
		}
		if want == nil {
			want = []*entity.Product{}
		}
		assert.Equal(t, want, got, "query=%q category=%q", query, category)
	}
}
