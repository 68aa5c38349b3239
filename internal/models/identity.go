package models

// Role is the capability level an identity acts with. It is a closed
// two-variant set; authorization code switches over it exhaustively.
type Role int

const (
	RoleOwner Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	}
	return "unknown"
}

// Identity is the acting user resolved from a validated session token.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity carries the administrator capability.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanMutate reports whether the identity may mutate a listing owned by
// ownerID. Administrators may mutate any listing; owners only their own.
func (i Identity) CanMutate(ownerID string) bool {
	switch i.Role {
	case RoleAdmin:
		return true
	case RoleOwner:
		return i.UserID == ownerID
	}
	return false
}
