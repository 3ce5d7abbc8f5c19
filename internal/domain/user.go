package domain

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
