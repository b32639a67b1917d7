package repositories

import "userhook/internal/models"

// ListFilter narrows and pages the user listing. The values are passed
// through unvalidated, as the API contract leaves limit and offset
// unbounded.
type ListFilter struct {
	Limit  int
	Offset int
	// Status, when non-empty, adds an equality filter on the status
	// column. The same filter applies to both the page query and the
	// total count.
	Status string
}

// UserUpdate is a sparse field-to-value mapping for partial updates.
// Only fields present in the map are written; there is no nullable
// sentinel, so "not supplied" and "explicitly cleared" can never be
// confused.
type UserUpdate map[string]any

// Empty reports whether the update carries no fields.
func (u UserUpdate) Empty() bool {
	return len(u) == 0
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	List(filter ListFilter) ([]models.User, int64, error)
	Update(id uint, fields UserUpdate) (*models.User, error)
	SoftDelete(id uint) (*models.User, error)
}
