package favorites

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jeffgoval/massage/internal/feed"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const collectionFavorites = "favorites"

type Service struct {
	repo     Repository
	feed     feed.Feed
	log      *slog.Logger
	location *time.Location
}

func NewService(repo Repository, feedBus feed.Feed, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		feed:     feedBus,
		log:      log,
		location: location,
	}
}

// Toggle flips membership for the pair. The same race handling as chat
// creation applies: a duplicate-key rejection on insert means another toggle
// already saved it, which is the state the caller wanted anyway.
func (s *Service) Toggle(ctx context.Context, userID, tenantID string) (ToggleResult, error) {
	existing, err := s.repo.Find(ctx, userID, tenantID)
	if err == nil {
		deleted, err := s.repo.Delete(ctx, userID, tenantID)
		if err != nil {
			return ToggleResult{}, err
		}
		if deleted > 0 {
			s.publish(ctx, existing.ID, feed.ActionDelete, existing)
		}
		return ToggleResult{TenantID: tenantID, Favorited: false}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return ToggleResult{}, err
	}

	fav := Favorite{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    userID,
		TenantID:  tenantID,
		CreatedAt: time.Now().In(s.location),
	}
	if err := s.repo.Insert(ctx, fav); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ToggleResult{TenantID: tenantID, Favorited: true}, nil
		}
		return ToggleResult{}, err
	}

	s.publish(ctx, fav.ID, feed.ActionCreate, fav)
	return ToggleResult{TenantID: tenantID, Favorited: true}, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Favorite, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Has reports whether the pair is currently favorited.
func (s *Service) Has(ctx context.Context, userID, tenantID string) (bool, error) {
	_, err := s.repo.Find(ctx, userID, tenantID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

func (s *Service) publish(ctx context.Context, docID, action string, payload any) {
	if err := s.feed.Publish(ctx, collectionFavorites, docID, action, payload); err != nil {
		s.log.Warn("favorites feed publish failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
