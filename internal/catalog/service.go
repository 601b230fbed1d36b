package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/pricing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("package not found")

// TenantHooks lets the catalog push rating recomputes and cache invalidation
// back to the tenant profile without importing it.
type TenantHooks interface {
	UpdateRating(ctx context.Context, tenantID string, rating float64, count int) error
	InvalidateProfile(ctx context.Context, tenantID string)
}

type Service struct {
	packages PackageRepository
	reviews  ReviewRepository
	hooks    TenantHooks
	location *time.Location
}

func NewService(packages PackageRepository, reviews ReviewRepository, hooks TenantHooks, location *time.Location) *Service {
	return &Service{
		packages: packages,
		reviews:  reviews,
		hooks:    hooks,
		location: location,
	}
}

func (s *Service) GetPackage(ctx context.Context, id string) (Package, error) {
	pkg, err := s.packages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Package{}, ErrNotFound
		}
		return Package{}, err
	}
	return pkg, nil
}

func (s *Service) ListPackages(ctx context.Context, tenantID string, activeOnly bool) ([]Package, error) {
	return s.packages.ListByTenant(ctx, tenantID, activeOnly)
}

// PackagePrices projects a tenant's packages into the resolver's input shape.
func (s *Service) PackagePrices(ctx context.Context, tenantID string) ([]pricing.PackagePrice, error) {
	items, err := s.packages.ListByTenant(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	prices := make([]pricing.PackagePrice, 0, len(items))
	for _, pkg := range items {
		prices = append(prices, pricing.PackagePrice{PriceCents: pkg.PriceCents, Active: pkg.IsActive})
	}
	return prices, nil
}

func (s *Service) CreatePackage(ctx context.Context, tenantID string, req UpsertPackageRequest) (Package, error) {
	now := time.Now().In(s.location)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	pkg := Package{
		ID:              primitive.NewObjectID().Hex(),
		TenantID:        tenantID,
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsActive:        isActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.packages.Insert(ctx, pkg); err != nil {
		return Package{}, err
	}
	s.hooks.InvalidateProfile(ctx, tenantID)
	return pkg, nil
}

func (s *Service) UpdatePackage(ctx context.Context, id, tenantID string, req UpsertPackageRequest) (Package, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	set := bson.M{
		"name":            strings.TrimSpace(req.Name),
		"description":     strings.TrimSpace(req.Description),
		"durationMinutes": req.DurationMinutes,
		"priceCents":      req.PriceCents,
		"isActive":        isActive,
		"updatedAt":       time.Now().In(s.location),
	}

	updated, err := s.packages.Update(ctx, id, tenantID, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Package{}, ErrNotFound
		}
		return Package{}, err
	}
	s.hooks.InvalidateProfile(ctx, tenantID)
	return updated, nil
}

func (s *Service) DeletePackage(ctx context.Context, id, tenantID string) error {
	deleted, err := s.packages.Delete(ctx, id, tenantID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.hooks.InvalidateProfile(ctx, tenantID)
	return nil
}

func (s *Service) ListReviews(ctx context.Context, tenantID string, limit int64) ([]Review, error) {
	return s.reviews.ListByTenant(ctx, tenantID, limit)
}

// CreateReview stores the review and recomputes the tenant's aggregate
// rating. The recompute reads back from the store rather than adjusting
// incrementally, so concurrent reviews converge.
func (s *Service) CreateReview(ctx context.Context, tenantID, clientID string, req CreateReviewRequest) (Review, error) {
	review := Review{
		ID:        primitive.NewObjectID().Hex(),
		TenantID:  tenantID,
		ClientID:  clientID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: time.Now().In(s.location),
	}

	if err := s.reviews.Insert(ctx, review); err != nil {
		return Review{}, err
	}

	rating, count, err := s.reviews.AggregateByTenant(ctx, tenantID)
	if err != nil {
		return Review{}, err
	}
	if err := s.hooks.UpdateRating(ctx, tenantID, rating, count); err != nil {
		return Review{}, err
	}
	s.hooks.InvalidateProfile(ctx, tenantID)
	return review, nil
}
