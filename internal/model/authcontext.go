package model

// AuthContext carries the authenticated identity through a request.
// It is populated by the auth middleware after token verification.
type AuthContext struct {
	UserID   string
	Email    string
	TokenID  string
	Roles    []string
	IsActive bool
}

// HasRole reports whether the auth context includes the given role.
func (a *AuthContext) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
