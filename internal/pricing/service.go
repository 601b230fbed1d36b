package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jeffgoval/massage/internal/jsoncfg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("pricing config not found")

type Service struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		location: location,
	}
}

// Get returns nil without error when the tenant has no config yet; absence is
// a valid state and callers fall back to package prices.
func (s *Service) Get(ctx context.Context, tenantID string) (*Config, error) {
	cfg, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Save creates the config lazily on first write and updates it in place
// afterwards. A duplicate-key error on insert means a concurrent first save
// won; the update path then applies on top of the winner.
func (s *Service) Save(ctx context.Context, tenantID string, basePrice int, periods, weekdays Table) (Config, error) {
	rawPeriods, err := encodeTable(periods)
	if err != nil {
		return Config{}, err
	}
	rawWeekdays, err := encodeTable(weekdays)
	if err != nil {
		return Config{}, err
	}

	now := time.Now().In(s.location)

	_, err = s.repo.GetByTenant(ctx, tenantID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cfg := Config{
			ID:        primitive.NewObjectID().Hex(),
			TenantID:  tenantID,
			BasePrice: basePrice,
			Periods:   rawPeriods,
			Weekdays:  rawWeekdays,
			CreatedAt: now,
			UpdatedAt: now,
		}
		insertErr := s.repo.Insert(ctx, cfg)
		if insertErr == nil {
			return cfg, nil
		}
		if !mongo.IsDuplicateKeyError(insertErr) {
			return Config{}, insertErr
		}
	} else if err != nil {
		return Config{}, err
	}

	return s.repo.Update(ctx, tenantID, bson.M{
		"basePrice": basePrice,
		"periods":   rawPeriods,
		"weekdays":  rawWeekdays,
		"updatedAt": now,
	})
}

// CurrentPrice resolves the tenant's price at now, tolerating an absent or
// unreadable config.
func (s *Service) CurrentPrice(ctx context.Context, tenantID string, packages []PackagePrice, now time.Time) int {
	cfg, err := s.Get(ctx, tenantID)
	if err != nil {
		cfg = nil
	}
	return Resolve(cfg, packages, now.In(s.location))
}

func encodeTable(table Table) (string, error) {
	if table == nil {
		table = Table{}
	}
	return jsoncfg.EncodeLimited(table, jsoncfg.MaxPricingLen)
}
