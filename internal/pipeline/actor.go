package pipeline

import (
	"strings"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// Actor is the verified caller of a run. Both fields come from the credential and the
// role table, never from request bodies.
type Actor struct {
	UserID uint
	Role   string
}

// StaffRoles may run the generation, evaluation and plagiarism endpoints.
var StaffRoles = []string{models.RoleFaculty, models.RoleAdmin}

// HasRole reports whether the actor holds one of roles. An empty role never matches.
func (a Actor) HasRole(roles ...string) bool {
	role := strings.ToLower(strings.TrimSpace(a.Role))
	if role == "" {
		return false
	}
	for _, allowed := range roles {
		if role == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
