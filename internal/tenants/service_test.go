package tenants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeffgoval/massage/internal/cache"
	"github.com/jeffgoval/massage/internal/catalog"
	"github.com/jeffgoval/massage/internal/pricing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	byID   map[string]TenantProfile
	bySlug map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:   make(map[string]TenantProfile),
		bySlug: make(map[string]string),
	}
}

func dupErr() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (TenantProfile, error) {
	p, ok := f.byID[id]
	if !ok {
		return TenantProfile{}, mongo.ErrNoDocuments
	}
	return p, nil
}

func (f *fakeRepo) GetBySlug(ctx context.Context, slug string) (TenantProfile, error) {
	id, ok := f.bySlug[slug]
	if !ok {
		return TenantProfile{}, mongo.ErrNoDocuments
	}
	return f.byID[id], nil
}

func (f *fakeRepo) Insert(ctx context.Context, profile TenantProfile) error {
	if _, ok := f.byID[profile.ID]; ok {
		return dupErr()
	}
	if _, ok := f.bySlug[profile.Slug]; ok {
		return dupErr()
	}
	f.byID[profile.ID] = profile
	f.bySlug[profile.Slug] = profile.ID
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set bson.M) (TenantProfile, error) {
	p, ok := f.byID[id]
	if !ok {
		return TenantProfile{}, mongo.ErrNoDocuments
	}
	if v, ok := set["availability"].(string); ok {
		p.Availability = v
	}
	if v, ok := set["avatar"].(string); ok {
		p.Avatar = v
	}
	if v, ok := set["rating"].(float64); ok {
		p.Rating = v
	}
	if v, ok := set["reviewCount"].(int); ok {
		p.ReviewCount = v
	}
	f.byID[id] = p
	return p, nil
}

func (f *fakeRepo) IncTotalBookings(ctx context.Context, id string) error {
	p, ok := f.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.TotalBookings++
	f.byID[id] = p
	return nil
}

func (f *fakeRepo) Search(ctx context.Context, filter SearchFilter, limit, offset int64) ([]TenantProfile, error) {
	var out []TenantProfile
	for _, p := range f.byID {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter SearchFilter) (int64, error) {
	items, _ := f.Search(ctx, filter, 0, 0)
	return int64(len(items)), nil
}

type fakePackageRepo struct {
	items []catalog.Package
	fail  bool
}

func (f *fakePackageRepo) GetByID(ctx context.Context, id string) (catalog.Package, error) {
	return catalog.Package{}, mongo.ErrNoDocuments
}

func (f *fakePackageRepo) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]catalog.Package, error) {
	if f.fail {
		return nil, errors.New("backend unavailable")
	}
	return f.items, nil
}

func (f *fakePackageRepo) Insert(ctx context.Context, pkg catalog.Package) error { return nil }

func (f *fakePackageRepo) Update(ctx context.Context, id, tenantID string, set bson.M) (catalog.Package, error) {
	return catalog.Package{}, mongo.ErrNoDocuments
}

func (f *fakePackageRepo) Delete(ctx context.Context, id, tenantID string) (bool, error) {
	return false, nil
}

type fakeReviewRepo struct {
	items []catalog.Review
	fail  bool
}

func (f *fakeReviewRepo) ListByTenant(ctx context.Context, tenantID string, limit int64) ([]catalog.Review, error) {
	if f.fail {
		return nil, errors.New("backend unavailable")
	}
	return f.items, nil
}

func (f *fakeReviewRepo) Insert(ctx context.Context, review catalog.Review) error { return nil }

func (f *fakeReviewRepo) AggregateByTenant(ctx context.Context, tenantID string) (float64, int, error) {
	return 0, 0, nil
}

type fakePricingRepo struct {
	cfg *pricing.Config
}

func (f *fakePricingRepo) GetByTenant(ctx context.Context, tenantID string) (pricing.Config, error) {
	if f.cfg == nil {
		return pricing.Config{}, mongo.ErrNoDocuments
	}
	return *f.cfg, nil
}

func (f *fakePricingRepo) Insert(ctx context.Context, cfg pricing.Config) error { return nil }

func (f *fakePricingRepo) Update(ctx context.Context, tenantID string, set bson.M) (pricing.Config, error) {
	return pricing.Config{}, mongo.ErrNoDocuments
}

func newTestService(repo *fakeRepo, pkgs *fakePackageRepo, reviews *fakeReviewRepo, priceCfg *pricing.Config) *Service {
	pricingSvc := pricing.NewService(&fakePricingRepo{cfg: priceCfg}, time.UTC)
	return NewService(repo, pkgs, reviews, pricingSvc, cache.NewNoop(), time.Minute, time.UTC)
}

func TestCreateProfileSlugCollision(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePackageRepo{}, &fakeReviewRepo{}, nil)
	ctx := context.Background()

	first, err := svc.CreateProfile(ctx, "user-aaaaaa", "Maria Silva")
	if err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	if first.Slug != "maria-silva" {
		t.Fatalf("slug = %q, want maria-silva", first.Slug)
	}

	second, err := svc.CreateProfile(ctx, "user-bbbbbb", "Maria Silva")
	if err != nil {
		t.Fatalf("second CreateProfile: %v", err)
	}
	if second.Slug == first.Slug {
		t.Fatalf("second profile reused slug %q", second.Slug)
	}
	if second.Slug != "maria-silva-bbbbbb" {
		t.Fatalf("slug = %q, want maria-silva-bbbbbb", second.Slug)
	}
}

func TestCreateProfileAlreadyProvisioned(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePackageRepo{}, &fakeReviewRepo{}, nil)
	ctx := context.Background()

	first, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	again, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("repeat CreateProfile: %v", err)
	}
	if again.Slug != first.Slug {
		t.Fatalf("repeat provisioning changed slug: %q vs %q", again.Slug, first.Slug)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("profile count = %d, want 1", len(repo.byID))
	}
}

func TestPublicProfileInactiveHidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePackageRepo{}, &fakeReviewRepo{}, nil)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	stored := repo.byID[profile.ID]
	stored.IsActive = false
	repo.byID[profile.ID] = stored

	if _, err := svc.PublicProfile(ctx, profile.Slug, time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for inactive profile, got %v", err)
	}
}

func TestPublicProfileComposesPriceFromPackages(t *testing.T) {
	repo := newFakeRepo()
	pkgs := &fakePackageRepo{items: []catalog.Package{
		{ID: "p1", PriceCents: 25000, IsActive: true},
		{ID: "p2", PriceCents: 18000, IsActive: true},
	}}
	svc := newTestService(repo, pkgs, &fakeReviewRepo{}, nil)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	view, err := svc.PublicProfile(ctx, profile.Slug, time.Now())
	if err != nil {
		t.Fatalf("PublicProfile: %v", err)
	}
	if view.CurrentPrice != 180 {
		t.Fatalf("CurrentPrice = %d, want 180 (min active package)", view.CurrentPrice)
	}
	if len(view.Packages) != 2 {
		t.Fatalf("package count = %d, want 2", len(view.Packages))
	}
}

func TestPublicProfileDegradesFailedReads(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePackageRepo{fail: true}, &fakeReviewRepo{fail: true}, nil)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	view, err := svc.PublicProfile(ctx, profile.Slug, time.Now())
	if err != nil {
		t.Fatalf("failed section reads must not fail the page: %v", err)
	}
	if len(view.Packages) != 0 || len(view.Reviews) != 0 {
		t.Fatalf("expected empty degraded sections")
	}
	if view.CurrentPrice != pricing.DefaultBasePrice {
		t.Fatalf("CurrentPrice = %d, want default %d", view.CurrentPrice, pricing.DefaultBasePrice)
	}
}

func TestScheduleFallsBackOnMalformedBlob(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePackageRepo{}, &fakeReviewRepo{}, nil)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "user-1", "Ana")
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	stored := repo.byID[profile.ID]
	stored.Availability = "{invalid"
	repo.byID[profile.ID] = stored

	week, err := svc.Schedule(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if day, ok := week["monday"]; !ok || !day.Enabled || day.Start != "10:00" {
		t.Fatalf("expected default availability, got %+v", week)
	}
}
