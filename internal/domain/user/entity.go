package user

// Role is the closed set of roles the API layer recognizes in token claims.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// CanModerate reports whether the role may act on other students' records
// (manual check-in, approvals, verification challenges).
func CanModerate(role Role) bool {
	return role == RoleTeacher || role == RoleAdmin
}
