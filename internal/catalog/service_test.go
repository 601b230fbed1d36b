package catalog

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakePackageRepo struct {
	items map[string]Package
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{items: make(map[string]Package)}
}

func (f *fakePackageRepo) GetByID(ctx context.Context, id string) (Package, error) {
	pkg, ok := f.items[id]
	if !ok {
		return Package{}, mongo.ErrNoDocuments
	}
	return pkg, nil
}

func (f *fakePackageRepo) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]Package, error) {
	var out []Package
	for _, pkg := range f.items {
		if pkg.TenantID != tenantID {
			continue
		}
		if activeOnly && !pkg.IsActive {
			continue
		}
		out = append(out, pkg)
	}
	return out, nil
}

func (f *fakePackageRepo) Insert(ctx context.Context, pkg Package) error {
	f.items[pkg.ID] = pkg
	return nil
}

func (f *fakePackageRepo) Update(ctx context.Context, id, tenantID string, set bson.M) (Package, error) {
	pkg, ok := f.items[id]
	if !ok || pkg.TenantID != tenantID {
		return Package{}, mongo.ErrNoDocuments
	}
	if v, ok := set["priceCents"].(int); ok {
		pkg.PriceCents = v
	}
	if v, ok := set["isActive"].(bool); ok {
		pkg.IsActive = v
	}
	if v, ok := set["name"].(string); ok {
		pkg.Name = v
	}
	f.items[id] = pkg
	return pkg, nil
}

func (f *fakePackageRepo) Delete(ctx context.Context, id, tenantID string) (bool, error) {
	pkg, ok := f.items[id]
	if !ok || pkg.TenantID != tenantID {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

type fakeReviewRepo struct {
	items []Review
}

func (f *fakeReviewRepo) ListByTenant(ctx context.Context, tenantID string, limit int64) ([]Review, error) {
	var out []Review
	for _, r := range f.items {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Insert(ctx context.Context, review Review) error {
	f.items = append(f.items, review)
	return nil
}

func (f *fakeReviewRepo) AggregateByTenant(ctx context.Context, tenantID string) (float64, int, error) {
	sum, count := 0, 0
	for _, r := range f.items {
		if r.TenantID == tenantID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type fakeHooks struct {
	rating      float64
	count       int
	invalidated int
}

func (f *fakeHooks) UpdateRating(ctx context.Context, tenantID string, rating float64, count int) error {
	f.rating = rating
	f.count = count
	return nil
}

func (f *fakeHooks) InvalidateProfile(ctx context.Context, tenantID string) {
	f.invalidated++
}

func TestCreateReviewRecomputesAggregate(t *testing.T) {
	reviews := &fakeReviewRepo{}
	hooks := &fakeHooks{}
	svc := NewService(newFakePackageRepo(), reviews, hooks, time.UTC)
	ctx := context.Background()

	if _, err := svc.CreateReview(ctx, "tenant-1", "client-1", CreateReviewRequest{Rating: 5, Comment: "ótimo"}); err != nil {
		t.Fatalf("first CreateReview: %v", err)
	}
	if hooks.rating != 5 || hooks.count != 1 {
		t.Fatalf("aggregate after first review = (%v, %d), want (5, 1)", hooks.rating, hooks.count)
	}

	if _, err := svc.CreateReview(ctx, "tenant-1", "client-2", CreateReviewRequest{Rating: 2}); err != nil {
		t.Fatalf("second CreateReview: %v", err)
	}
	if hooks.rating != 3.5 || hooks.count != 2 {
		t.Fatalf("aggregate after second review = (%v, %d), want (3.5, 2)", hooks.rating, hooks.count)
	}
	if hooks.invalidated != 2 {
		t.Fatalf("profile invalidations = %d, want 2", hooks.invalidated)
	}

	// Another tenant's reviews never enter the aggregate.
	if _, err := svc.CreateReview(ctx, "tenant-2", "client-1", CreateReviewRequest{Rating: 1}); err != nil {
		t.Fatalf("other-tenant CreateReview: %v", err)
	}
	if hooks.rating != 1 || hooks.count != 1 {
		t.Fatalf("aggregate for tenant-2 = (%v, %d), want (1, 1)", hooks.rating, hooks.count)
	}
}

func TestPackageOwnerScoping(t *testing.T) {
	packages := newFakePackageRepo()
	hooks := &fakeHooks{}
	svc := NewService(packages, &fakeReviewRepo{}, hooks, time.UTC)
	ctx := context.Background()

	pkg, err := svc.CreatePackage(ctx, "tenant-1", UpsertPackageRequest{
		Name:            "Relaxante 60min",
		DurationMinutes: 60,
		PriceCents:      25000,
	})
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	if !pkg.IsActive {
		t.Fatalf("new package should default to active")
	}

	if _, err := svc.UpdatePackage(ctx, pkg.ID, "tenant-2", UpsertPackageRequest{Name: "x", DurationMinutes: 60, PriceCents: 100}); err != ErrNotFound {
		t.Fatalf("foreign update error = %v, want ErrNotFound", err)
	}
	if err := svc.DeletePackage(ctx, pkg.ID, "tenant-2"); err != ErrNotFound {
		t.Fatalf("foreign delete error = %v, want ErrNotFound", err)
	}
	if err := svc.DeletePackage(ctx, pkg.ID, "tenant-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestPackagePricesProjection(t *testing.T) {
	packages := newFakePackageRepo()
	svc := NewService(packages, &fakeReviewRepo{}, &fakeHooks{}, time.UTC)
	ctx := context.Background()

	packages.items["p1"] = Package{ID: "p1", TenantID: "tenant-1", PriceCents: 25000, IsActive: true}
	packages.items["p2"] = Package{ID: "p2", TenantID: "tenant-1", PriceCents: 18000, IsActive: false}

	prices, err := svc.PackagePrices(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("PackagePrices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("price count = %d, want 2 (inactive included, resolver filters)", len(prices))
	}
}
