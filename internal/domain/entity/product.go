package entity

import (
	"time"
)

// CategoryAll is the filter value that matches every product.
const CategoryAll = "Todas"

// Categories offered by the listing screen, CategoryAll first.
var Categories = []string{
	CategoryAll,
	"Ropa",
	"Tecnología",
	"Hogar",
	"Deportes",
	"Alimentos",
	"Otros",
}

type Product struct {
	ID          string    `json:"id" firestore:"id"`
	Name        string    `json:"name" firestore:"name"`
	Price       float64   `json:"price" firestore:"price"`
	Description string    `json:"description" firestore:"description"`
	Category    string    `json:"category,omitempty" firestore:"category,omitempty"`
	ImageURL    string    `json:"image_url" firestore:"imageUrl"`
	SellerID    string    `json:"seller_id" firestore:"sellerId"`
	SellerName  string    `json:"seller_name" firestore:"sellerName"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
