package roles

import (
	"testing"

	"github.com/jeffgoval/massage/internal/models"
)

func TestClientPermissions(t *testing.T) {
	if !Can(models.RoleClient, PermBook) {
		t.Fatalf("client should be able to book")
	}
	if !Can(models.RoleClient, PermChat) {
		t.Fatalf("client should be able to chat")
	}
	if Can(models.RoleClient, PermManageProfile) {
		t.Fatalf("client must not manage profiles")
	}
	if Can(models.RoleClient, PermManageUsers) {
		t.Fatalf("client must not manage users")
	}
}

func TestProfessionalPermissions(t *testing.T) {
	if Can(models.RoleProfessional, PermBook) {
		t.Fatalf("professional must not book")
	}
	if !Can(models.RoleProfessional, PermManageProfile) {
		t.Fatalf("professional should manage own profile")
	}
	if !Can(models.RoleProfessional, PermManageBookings) {
		t.Fatalf("professional should manage bookings")
	}
}

func TestAdminPermissions(t *testing.T) {
	for _, p := range []Permission{PermBook, PermReview, PermChat, PermManageProfile, PermManageBookings, PermManageAvailability, PermManageUsers, PermModerate} {
		if !Can(models.RoleAdmin, p) {
			t.Fatalf("admin missing %s", p)
		}
	}
}

func TestUnknownRoleDeniedByDefault(t *testing.T) {
	for _, role := range []string{"", "superuser", "Client"} {
		if Can(role, PermChat) {
			t.Fatalf("role %q must be denied", role)
		}
	}
}
