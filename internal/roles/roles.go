// Package roles maps account roles to their static permission sets. There is
// no hierarchy or wildcard resolution; an unknown role has no permissions.
package roles

import "github.com/jeffgoval/massage/internal/models"

type Permission string

const (
	PermBook               Permission = "book"
	PermReview             Permission = "review"
	PermChat               Permission = "chat"
	PermManageProfile      Permission = "manage_profile"
	PermManageBookings     Permission = "manage_bookings"
	PermManageAvailability Permission = "manage_availability"
	PermManageUsers        Permission = "manage_users"
	PermModerate           Permission = "moderate"
)

var permissions = map[string]map[Permission]struct{}{
	models.RoleClient: set(
		PermBook,
		PermReview,
		PermChat,
	),
	models.RoleProfessional: set(
		PermChat,
		PermManageProfile,
		PermManageBookings,
		PermManageAvailability,
	),
	models.RoleAdmin: set(
		PermBook,
		PermReview,
		PermChat,
		PermManageProfile,
		PermManageBookings,
		PermManageAvailability,
		PermManageUsers,
		PermModerate,
	),
}

func set(perms ...Permission) map[Permission]struct{} {
	out := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		out[p] = struct{}{}
	}
	return out
}

// Can reports whether role holds perm. Unknown roles deny everything.
func Can(role string, perm Permission) bool {
	ps, ok := permissions[role]
	if !ok {
		return false
	}
	_, ok = ps[perm]
	return ok
}
