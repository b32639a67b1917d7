package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatusDeleted marks a soft-deleted user. Status is otherwise
// free-form text; any value can be written via the update endpoint.
const StatusDeleted = "deleted"

// User represents a registered user row. Rows are never physically
// removed: soft delete only flips Status to "deleted", so the unique
// index on Email also covers soft-deleted users.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"type:varchar(100);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	UserData  datatypes.JSON `json:"user_data" gorm:"column:user_data"`
	Status    string         `json:"status" gorm:"type:varchar(20);default:'active';index:idx_users_status"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_users_created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the table name for both database variants.
func (User) TableName() string {
	return "users"
}
