package models

// Role values stored in the user_roles table.
const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"
	RoleParent  = "parent"
)

// UserRole assigns an application role to an authenticated user.
type UserRole struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role   string `gorm:"size:32;not null;uniqueIndex:idx_user_role" json:"role"`
}
