// Package auth holds the role hierarchy, password hashing and token handling
// shared by the HTTP transport and the application services.
package auth

import "strings"

// Role names a position in the access hierarchy.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleEmployee   Role = "employee"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
)

// roleHierarchy maps each known role to its rank; higher ranks include lower ones.
var roleHierarchy = map[Role]int{
	RoleGuest:      1,
	RoleEmployee:   2,
	RoleDispatcher: 3,
	RoleAdmin:      4,
	RoleSupervisor: 5,
}

var roleLabels = map[Role]string{
	RoleGuest:      "Gast",
	RoleEmployee:   "Mitarbeiter",
	RoleDispatcher: "Disponent",
	RoleAdmin:      "Administrator",
	RoleSupervisor: "Supervisor",
}

// Roles returns every known role ordered by rank.
func Roles() []Role {
	return []Role{RoleGuest, RoleEmployee, RoleDispatcher, RoleAdmin, RoleSupervisor}
}

// Rank returns the hierarchy level of r. Unknown roles rank 0.
func (r Role) Rank() int {
	return roleHierarchy[r]
}

// Valid reports whether r is part of the hierarchy.
func (r Role) Valid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Label returns the display name of the role.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalises value and reports whether it names a known role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// HasPermission reports whether actual is ranked at least as high as required.
// A role outside the hierarchy never satisfies any requirement.
func HasPermission(required, actual Role) bool {
	actualRank := actual.Rank()
	if actualRank == 0 {
		return false
	}
	return actualRank >= required.Rank()
}
