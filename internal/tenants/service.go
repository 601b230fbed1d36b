package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/cache"
	"github.com/jeffgoval/massage/internal/catalog"
	"github.com/jeffgoval/massage/internal/jsoncfg"
	"github.com/jeffgoval/massage/internal/pricing"
	"github.com/jeffgoval/massage/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("tenant not found")

const (
	profileCachePrefix = "profile:"
	reviewsShown       = 10
)

type Service struct {
	repo     Repository
	packages catalog.PackageRepository
	reviews  catalog.ReviewRepository
	pricing  *pricing.Service
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
}

func NewService(repo Repository, packages catalog.PackageRepository, reviews catalog.ReviewRepository, pricingSvc *pricing.Service, cacheStore cache.Cache, cacheTTL time.Duration, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		packages: packages,
		reviews:  reviews,
		pricing:  pricingSvc,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		location: location,
	}
}

// CreateProfile provisions the tenant record at professional registration,
// with display defaults and a unique slug. Slug collisions get a suffix
// derived from the account id.
func (s *Service) CreateProfile(ctx context.Context, userID, name string) (TenantProfile, error) {
	now := time.Now().In(s.location)
	base := utils.Slugify(name)
	if base == "" {
		base = "profissional"
	}

	availability, err := jsoncfg.EncodeLimited(DefaultAvailability(), jsoncfg.MaxAvailabilityLen)
	if err != nil {
		return TenantProfile{}, err
	}

	profile := TenantProfile{
		ID:           userID,
		DisplayName:  strings.TrimSpace(name),
		Slug:         base,
		IsActive:     true,
		Availability: availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	suffix := userID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	candidates := []string{base, base + "-" + suffix, base + "-" + suffix + "-" + primitive.NewObjectID().Hex()[:4]}
	for _, slug := range candidates {
		profile.Slug = slug
		err := s.repo.Insert(ctx, profile)
		if err == nil {
			return profile, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return TenantProfile{}, err
		}
		// Either the slug or the id collided; an existing id means the
		// profile was already provisioned.
		if existing, getErr := s.repo.GetByID(ctx, userID); getErr == nil {
			return existing, nil
		}
	}
	return TenantProfile{}, errors.New("could not allocate unique slug")
}

func (s *Service) Get(ctx context.Context, id string) (TenantProfile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return TenantProfile{}, ErrNotFound
		}
		return TenantProfile{}, err
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateProfileRequest) (TenantProfile, error) {
	set := bson.M{"updatedAt": time.Now().In(s.location)}

	if req.DisplayName != "" {
		set["displayName"] = strings.TrimSpace(req.DisplayName)
	}
	set["bio"] = strings.TrimSpace(req.Bio)
	set["tagline"] = strings.TrimSpace(req.Tagline)
	set["location"] = strings.TrimSpace(req.Location)
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.Age != 0 {
		set["age"] = req.Age
	}
	set["height"] = strings.TrimSpace(req.Height)
	set["weight"] = strings.TrimSpace(req.Weight)
	set["ethnicity"] = strings.TrimSpace(req.Ethnicity)
	set["eyeColor"] = strings.TrimSpace(req.EyeColor)
	set["hairColor"] = strings.TrimSpace(req.HairColor)

	if req.Photos != nil {
		raw, err := jsoncfg.EncodeLimited(req.Photos, jsoncfg.MaxPhotosLen)
		if err != nil {
			return TenantProfile{}, err
		}
		set["photos"] = raw
	}
	if req.Amenities != nil {
		raw, err := jsoncfg.EncodeLimited(req.Amenities, jsoncfg.MaxAmenitiesLen)
		if err != nil {
			return TenantProfile{}, err
		}
		set["amenities"] = raw
	}
	if req.Availability != nil {
		raw, err := jsoncfg.EncodeLimited(req.Availability, jsoncfg.MaxAvailabilityLen)
		if err != nil {
			return TenantProfile{}, err
		}
		set["availability"] = raw
	}

	updated, err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return TenantProfile{}, ErrNotFound
		}
		return TenantProfile{}, err
	}

	s.InvalidateProfile(ctx, id)
	return updated, nil
}

func (s *Service) SetAvatar(ctx context.Context, id, avatar string) error {
	_, err := s.repo.Update(ctx, id, bson.M{
		"avatar":    avatar,
		"updatedAt": time.Now().In(s.location),
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	s.InvalidateProfile(ctx, id)
	return nil
}

// PublicProfile composes the public view from its independently stored
// pieces. Malformed JSON blobs degrade to defaults; a missing pricing config
// degrades to package prices.
func (s *Service) PublicProfile(ctx context.Context, slug string, now time.Time) (PublicProfile, error) {
	cacheKey := profileCachePrefix + slug
	if cached, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var view PublicProfile
		if err := json.Unmarshal(cached, &view); err == nil {
			return view, nil
		}
	}

	profile, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return PublicProfile{}, ErrNotFound
		}
		return PublicProfile{}, err
	}
	if !profile.IsActive {
		return PublicProfile{}, ErrNotFound
	}

	view := s.compose(ctx, profile, now)

	if payload, err := json.Marshal(view); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
	}
	return view, nil
}

func (s *Service) compose(ctx context.Context, profile TenantProfile, now time.Time) PublicProfile {
	view := PublicProfile{
		TenantProfile: profile,
		PhotoURLs:     jsoncfg.Decode(profile.Photos, []string{}),
		AmenityList:   jsoncfg.Decode(profile.Amenities, []string{}),
		Schedule:      jsoncfg.Decode(profile.Availability, DefaultAvailability()),
		Packages:      []catalog.Package{},
		Reviews:       []catalog.Review{},
	}

	// Display reads degrade to empty sections instead of failing the page.
	if packages, err := s.packages.ListByTenant(ctx, profile.ID, true); err == nil {
		view.Packages = packages
	}
	if reviews, err := s.reviews.ListByTenant(ctx, profile.ID, reviewsShown); err == nil {
		view.Reviews = reviews
	}

	prices := make([]pricing.PackagePrice, 0, len(view.Packages))
	for _, pkg := range view.Packages {
		prices = append(prices, pricing.PackagePrice{PriceCents: pkg.PriceCents, Active: pkg.IsActive})
	}
	view.CurrentPrice = s.pricing.CurrentPrice(ctx, profile.ID, prices, now)

	return view
}

func (s *Service) Search(ctx context.Context, filter SearchFilter, limit, offset int64) ([]TenantProfile, int64, error) {
	filter.Location = strings.TrimSpace(filter.Location)
	items, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Schedule returns the tenant's weekly availability for slot validation.
func (s *Service) Schedule(ctx context.Context, tenantID string) (WeekSchedule, error) {
	profile, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return jsoncfg.Decode(profile.Availability, DefaultAvailability()), nil
}

func (s *Service) RecordBooking(ctx context.Context, tenantID string) error {
	if err := s.repo.IncTotalBookings(ctx, tenantID); err != nil {
		return err
	}
	s.InvalidateProfile(ctx, tenantID)
	return nil
}

// UpdateRating implements catalog.TenantHooks.
func (s *Service) UpdateRating(ctx context.Context, tenantID string, rating float64, count int) error {
	_, err := s.repo.Update(ctx, tenantID, bson.M{
		"rating":      rating,
		"reviewCount": count,
		"updatedAt":   time.Now().In(s.location),
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// InvalidateProfile implements catalog.TenantHooks. Cache keys are by slug,
// so the profile is read back to find it; a failed lookup falls back to
// clearing the whole prefix.
func (s *Service) InvalidateProfile(ctx context.Context, tenantID string) {
	profile, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		_ = s.cache.DeletePrefix(ctx, profileCachePrefix)
		return
	}
	_ = s.cache.Delete(ctx, profileCachePrefix+profile.Slug)
}
