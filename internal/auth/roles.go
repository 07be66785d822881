package auth

import "github.com/pokerledger/platform/internal/domain"

// Capability names an operation class gated by role.
type Capability string

const (
	CapTablesRead   Capability = "tables:read"
	CapUsersSelf    Capability = "users:self"
	CapTablesWrite  Capability = "tables:write"
	CapPlayersWrite Capability = "players:write"
	CapLedgerWrite  Capability = "ledger:write"
	CapTablesDelete Capability = "tables:delete"
	CapUsersAdmin   Capability = "users:admin"
)

var (
	everyone = []domain.Role{domain.RoleViewer, domain.RoleEditor, domain.RoleAdmin}
	writers  = []domain.Role{domain.RoleEditor, domain.RoleAdmin}
	admins   = []domain.Role{domain.RoleAdmin}
)

// capabilities is the single allow-list consulted by Require. Roles are not ordered,
// so each entry names its roles explicitly.
var capabilities = map[Capability][]domain.Role{
	CapTablesRead:   everyone,
	CapUsersSelf:    everyone,
	CapTablesWrite:  writers,
	CapPlayersWrite: writers,
	CapLedgerWrite:  writers,
	CapTablesDelete: admins,
	CapUsersAdmin:   admins,
}

// Allowed reports whether role holds capability. Unknown capabilities allow nobody.
func Allowed(role domain.Role, capability Capability) bool {
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the roles granted capability.
func RolesFor(capability Capability) []domain.Role {
	roles := capabilities[capability]
	out := make([]domain.Role, len(roles))
	copy(out, roles)
	return out
}

// Capabilities lists every known capability.
func Capabilities() []Capability {
	return []Capability{
		CapTablesRead, CapUsersSelf, CapTablesWrite, CapPlayersWrite,
		CapLedgerWrite, CapTablesDelete, CapUsersAdmin,
	}
}
