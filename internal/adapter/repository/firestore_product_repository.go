package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

const productsCollection = "products"

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = r.client.Collection(productsCollection).NewDoc().ID
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}

	if _, err := r.client.Collection(productsCollection).Doc(product.ID).Create(ctx, product); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Product already exists", err)
		}
		return errors.Internal("Failed to create product", err)
	}

	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	product.ID = doc.Ref.ID

	return &product, nil
}

func (r *firestoreProductRepository) ListAll(ctx context.Context) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).OrderBy("createdAt", firestore.Desc)
	return r.collect(ctx, query)
}

func (r *firestoreProductRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).
		Where("sellerId", "==", sellerID).
		OrderBy("createdAt", firestore.Desc)
	return r.collect(ctx, query)
}

func (r *firestoreProductRepository) collect(ctx context.Context, query firestore.Query) ([]*entity.Product, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list products", err)
	}

	products := make([]*entity.Product, 0, len(docs))
	for _, doc := range docs {
		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			// One malformed document must not hide the whole catalogue.
			logger.Warn("Skipping malformed product %s: %v", doc.Ref.ID, err)
			continue
		}
		product.ID = doc.Ref.ID
		products = append(products, &product)
	}

	return products, nil
}
