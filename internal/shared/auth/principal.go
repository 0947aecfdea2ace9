package auth

// Role is the access level of a request.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleViewer    Role = "viewer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleViewer, RoleAdmin:
		return true
	}
	return false
}

// Principal is the caller identity resolved once per request.
type Principal struct {
	Role Role
	ID   string
}

// Anonymous is the principal for unauthenticated callers.
func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsAnonymous() bool {
	return p.Role == "" || p.Role == RoleAnonymous
}
