package users

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jeffgoval/massage/internal/auth"
	"github.com/jeffgoval/massage/internal/models"
	"github.com/jeffgoval/massage/internal/tenants"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]models.User)}
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (f *fakeRepo) Insert(ctx context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == user.Email {
			return mongo.WriteException{
				WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
			}
		}
	}
	f.rows[user.ID] = user
	return nil
}

func (f *fakeRepo) List(ctx context.Context, limit, offset int64) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.IsActive = active
	f.rows[id] = u
	return nil
}

func (f *fakeRepo) SetRole(ctx context.Context, id, role string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Role = role
	f.rows[id] = u
	return nil
}

type fakeProvisioner struct {
	created []string
}

func (f *fakeProvisioner) CreateProfile(ctx context.Context, userID, name string) (tenants.TenantProfile, error) {
	f.created = append(f.created, userID)
	return tenants.TenantProfile{ID: userID, DisplayName: name}, nil
}

func newTestService(repo Repository, prov ProfileProvisioner) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, prov, log, time.UTC)
}

func TestRegisterClient(t *testing.T) {
	repo := newFakeRepo()
	prov := &fakeProvisioner{}
	svc := newTestService(repo, prov)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "Ana@Example.com",
		Password: "secret-password",
		Name:     "Ana",
		Role:     models.RoleClient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if !user.IsActive {
		t.Fatalf("new account must be active")
	}
	if user.PasswordHash == "secret-password" || user.PasswordHash == "" {
		t.Fatalf("password stored unhashed")
	}
	if len(prov.created) != 0 {
		t.Fatalf("client registration must not provision a profile")
	}
}

func TestRegisterProfessionalProvisionsProfile(t *testing.T) {
	repo := newFakeRepo()
	prov := &fakeProvisioner{}
	svc := newTestService(repo, prov)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "pro@example.com",
		Password: "secret-password",
		Name:     "Pro",
		Role:     models.RoleProfessional,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(prov.created) != 1 || prov.created[0] != user.ID {
		t.Fatalf("profile not provisioned for professional: %v", prov.created)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeProvisioner{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "x@example.com",
		Password: "secret-password",
		Name:     "X",
		Role:     models.RoleAdmin,
	})
	if err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeProvisioner{})
	ctx := context.Background()

	req := RegisterRequest{
		Email:    "dup@example.com",
		Password: "secret-password",
		Name:     "Dup",
		Role:     models.RoleClient,
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(ctx, req); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeProvisioner{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Email:    "ana@example.com",
		Password: "secret-password",
		Name:     "Ana",
		Role:     models.RoleClient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Login(ctx, "ana@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("login returned wrong account")
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "missing@example.com", "secret-password"); err != ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.SetActive(ctx, registered.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "secret-password"); err != ErrInactive {
		t.Fatalf("disabled account: expected ErrInactive, got %v", err)
	}
}

func TestChangeRoleProvisionsProfile(t *testing.T) {
	repo := newFakeRepo()
	prov := &fakeProvisioner{}
	svc := newTestService(repo, prov)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "ana@example.com",
		Password: "secret-password",
		Name:     "Ana",
		Role:     models.RoleClient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	changed, err := svc.ChangeRole(ctx, user.ID, models.RoleProfessional)
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if changed.Role != models.RoleProfessional {
		t.Fatalf("role = %q, want professional", changed.Role)
	}
	if len(prov.created) != 1 {
		t.Fatalf("profile not provisioned on promotion")
	}

	if _, err := svc.ChangeRole(ctx, user.ID, "owner"); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("first EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin@example.com", "other-password"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("admin count = %d, want 1", len(repo.rows))
	}

	admin, err := svc.GetUser(ctx, firstKey(repo))
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("role = %q, want admin", admin.Role)
	}
	if err := auth.ComparePassword(admin.PasswordHash, "admin-password"); err != nil {
		t.Fatalf("original password must still match: %v", err)
	}
}

func firstKey(repo *fakeRepo) string {
	for id := range repo.rows {
		return id
	}
	return ""
}
