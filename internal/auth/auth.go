// Package auth resolves caller identity and roles from OIDC bearer tokens.
// Requests without credentials pass through as anonymous; downstream access
// policy decides what an anonymous caller may see.
package auth

// Role is an administrative or platform role carried in the identity token.
type Role string

const (
	// RoleSystemAdmin grants unrestricted access to every attachment.
	RoleSystemAdmin Role = "system_admin"
	// RoleDataAdmin grants unrestricted access to every attachment.
	RoleDataAdmin Role = "data_admin"
	// RoleReviewer may classify attachments but holds no blanket read access.
	RoleReviewer Role = "reviewer"
)

// Principal is an authenticated caller with resolved roles.
type Principal struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Roles   []Role `json:"roles"`
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Administrator reports whether the principal holds a role that bypasses
// attachment security state entirely.
func (p *Principal) Administrator() bool {
	return p.HasRole(RoleSystemAdmin) || p.HasRole(RoleDataAdmin)
}
