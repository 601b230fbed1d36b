package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/auth"
	"github.com/jeffgoval/massage/internal/models"
	"github.com/jeffgoval/massage/internal/tenants"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInactive           = errors.New("account disabled")
)

// ProfileProvisioner creates the tenant profile for professional accounts.
type ProfileProvisioner interface {
	CreateProfile(ctx context.Context, userID, name string) (tenants.TenantProfile, error)
}

type Service struct {
	repo     Repository
	profiles ProfileProvisioner
	log      *slog.Logger
	location *time.Location
}

func NewService(repo Repository, profiles ProfileProvisioner, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		log:      log,
		location: location,
	}
}

// Register creates the account. Self-registration only offers client and
// professional; admin accounts come from seeding or an elevated role change.
// A professional account also gets its tenant profile provisioned here.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	role := strings.TrimSpace(req.Role)
	if role != models.RoleClient && role != models.RoleProfessional {
		return models.User{}, ErrInvalidRole
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().In(s.location)
	user := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	if role == models.RoleProfessional && s.profiles != nil {
		if _, err := s.profiles.CreateProfile(ctx, user.ID, user.Name); err != nil {
			s.log.Error("register: tenant profile provisioning failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrInactive
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, limit, offset int64) ([]models.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	err := s.repo.SetActive(ctx, id, active, time.Now().In(s.location))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// ChangeRole is the elevated operation: the profile-edit path never touches
// the role field, only this does.
func (s *Service) ChangeRole(ctx context.Context, id, role string) (models.User, error) {
	if !models.ValidRole(role) {
		return models.User{}, ErrInvalidRole
	}
	if err := s.repo.SetRole(ctx, id, role, time.Now().In(s.location)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if role == models.RoleProfessional && s.profiles != nil {
		if _, err := s.profiles.CreateProfile(ctx, user.ID, user.Name); err != nil {
			s.log.Error("role change: tenant profile provisioning failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return user, nil
}

// EnsureAdmin seeds the admin account once; rerunning with the same email is
// a no-op.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(s.location)
	admin := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Email:        email,
		Name:         "Admin",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	s.log.Info("admin account seeded", slog.String("email", email))
	return nil
}
