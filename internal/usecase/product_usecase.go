package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/internal/infrastructure/ratelimit"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	files       *FileUseCase
	limiter     RateLimiter
}

func NewProductUseCase(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	files *FileUseCase,
	limiter RateLimiter,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
		files:       files,
		limiter:     limiter,
	}
}

type ProductDetail struct {
	*entity.Product
	Seller *entity.PublicProfile `json:"seller,omitempty"`
}

// CreateProduct validates the form before touching any backend, uploads the image, then writes
// the listing. If the write fails the image is deleted again.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, sellerID string, form ProductForm, image *ImageUpload) (*entity.Product, error) {
	form.HasImage = image != nil && image.Reader != nil
	valid, err := ValidateProductForm(form)
	if err != nil {
		return nil, err
	}
	if err := uc.files.CheckImage(image); err != nil {
		return nil, err
	}

	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !seller.IsEntrepreneur() {
		return nil, errors.Forbidden("Only entrepreneurs can publish products", nil)
	}

	if ok, wait := uc.limiter.Allow(sellerID, ratelimit.ActionCreateItem); !ok {
		return nil, errors.TooManyRequests("Too many products created", wait)
	}

	productID := uuid.New().String()
	metadata, err := uc.files.UploadImage(ctx, sellerID, image, "products", entity.FileEntityProduct, productID)
	if err != nil {
		return nil, err
	}

	product := &entity.Product{
		ID:          productID,
		Name:        valid.Name,
		Price:       valid.Price,
		Description: valid.Description,
		Category:    valid.Category,
		ImageURL:    metadata.URL,
		SellerID:    seller.ID,
		SellerName:  seller.UserName,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		logger.Error("CreateProduct Error: failed to store product for %s: %v", sellerID, err)
		uc.files.Discard(ctx, metadata)
		return nil, err
	}

	return product, nil
}

// ListProducts loads every listing once, newest first, and filters it in memory.
func (uc *ProductUseCase) ListProducts(ctx context.Context, query, category string) ([]*entity.Product, error) {
	products, err := uc.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, query, category), nil
}

func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: product}
	seller, err := uc.userRepo.GetByID(ctx, product.SellerID)
	if err != nil {
		logger.Warn("GetProduct Warning: seller %s not found for product %s: %v", product.SellerID, id, err)
	} else {
		detail.Seller = seller.Public()
	}

	return detail, nil
}

func (uc *ProductUseCase) ListSellerProducts(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	return uc.productRepo.ListBySellerID(ctx, sellerID)
}

func (uc *ProductUseCase) Categories() []string {
	return append([]string(nil), entity.Categories...)
}
