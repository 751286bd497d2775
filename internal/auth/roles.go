package auth

import "strings"

// Role is the access level carried in a host token.
// viewer reads allocations and reports, operator imports feeds and enters
// bookings, admin also triggers the allocation batch.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// NormalizeRole accepts a role name in any case.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleRanks[role]; !ok {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role grants at least required.
func RoleAtLeast(role Role, required Role) bool {
	have, ok := roleRanks[role]
	return ok && have >= roleRanks[required]
}
