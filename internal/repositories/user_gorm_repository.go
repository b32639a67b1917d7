package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"userhook/internal/apperrors"
	"userhook/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository. It
// works against both database variants; the connection it is handed
// decides which one. It relies on GORM's error translation, so the
// unique-email violation surfaces as gorm.ErrDuplicatedKey regardless
// of driver.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user row. The store assigns id and timestamps.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("the email '%s' is already registered", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// List returns one page of users, newest first, plus the total count
// under the same filter. The count runs as a second statement and is
// not transactionally linked to the page query.
func (r *GORMUserRepository) List(filter ListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var users []models.User
	err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, total, nil
}

// Update applies a sparse field update to an existing row, refreshing
// updated_at unconditionally, and returns the row as stored.
func (r *GORMUserRepository) Update(id uint, fields UserUpdate) (*models.User, error) {
	values := map[string]any{}
	for field, value := range fields {
		values[field] = value
	}
	// Refreshed unconditionally, even when the supplied fields carry
	// the same values the row already holds.
	values["updated_at"] = time.Now()

	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("email is already in use by another user")
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("user with ID %d not found", id)
	}
	return r.GetByID(id)
}

// SoftDelete flips status to "deleted" and refreshes updated_at, but
// only when the row is not already deleted. An already-deleted id is
// indistinguishable from a missing one: both report Not-Found.
func (r *GORMUserRepository) SoftDelete(id uint) (*models.User, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND status <> ?", id, models.StatusDeleted).
		Updates(map[string]any{
			"status":     models.StatusDeleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to soft-delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("user with ID %d not found or already deleted", id)
	}
	// id, username and email are untouched by the flip, so the
	// re-fetched row carries the pre-mutation identifying fields.
	return r.GetByID(id)
}
