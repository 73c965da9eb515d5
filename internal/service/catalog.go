package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-api/internal/apperr"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
)

type CatalogService interface {
	Get(ctx context.Context, productID string) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	Create(ctx context.Context, req *dto.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, productID string, req *dto.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, productID string) error
	SetStock(ctx context.Context, productID string, stock int64) error
	AddReview(ctx context.Context, productID, userID string, req *dto.ReviewRequest) error
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

func validateProductRequest(req *dto.ProductRequest) error {
	if req.Name == "" {
		return apperr.Validation("product name is required")
	}
	if req.PriceCents < 0 {
		return apperr.Validation("product price cannot be negative")
	}
	if req.Stock < 0 {
		return apperr.Validation("product stock cannot be negative")
	}
	return nil
}

func (s *catalogServiceImpl) Get(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *catalogServiceImpl) List(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *catalogServiceImpl) Create(ctx context.Context, req *dto.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("store product: %w", err)
	}

	return product, nil
}

func (s *catalogServiceImpl) Update(ctx context.Context, productID string, req *dto.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		CategoryID:  req.CategoryID,
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", productID)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return s.Get(ctx, productID)
}

func (s *catalogServiceImpl) Delete(ctx context.Context, productID string) error {
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product %s not found", productID)
		}
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

func (s *catalogServiceImpl) SetStock(ctx context.Context, productID string, stock int64) error {
	if stock < 0 {
		return apperr.Validation("product stock cannot be negative")
	}

	if err := s.productRepo.SetStock(ctx, productID, stock); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product %s not found", productID)
		}
		return fmt.Errorf("set stock: %w", err)
	}

	return nil
}

func (s *catalogServiceImpl) AddReview(ctx context.Context, productID, userID string, req *dto.ReviewRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}

	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.productRepo.AddReview(ctx, review); err != nil {
		return fmt.Errorf("store review: %w", err)
	}

	return nil
}
