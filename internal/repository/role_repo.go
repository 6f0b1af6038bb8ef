package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// RoleRepository resolves and assigns application roles.
type RoleRepository interface {
	// GetRole returns the caller's most privileged role, or "" when none is assigned.
	GetRole(ctx context.Context, userID uint) (string, error)
	Assign(ctx context.Context, userID uint, role string) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

var rolePrecedence = map[string]int{
	models.RoleAdmin:   4,
	models.RoleFaculty: 3,
	models.RoleStudent: 2,
	models.RoleParent:  1,
}

func (r *roleRepository) GetRole(ctx context.Context, userID uint) (string, error) {
	var rows []models.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return "", err
	}

	best := ""
	for _, row := range rows {
		role := strings.ToLower(strings.TrimSpace(row.Role))
		if rolePrecedence[role] > rolePrecedence[best] {
			best = role
		}
	}
	return best, nil
}

func (r *roleRepository) Assign(ctx context.Context, userID uint, role string) error {
	row := models.UserRole{UserID: userID, Role: strings.ToLower(strings.TrimSpace(role))}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}
