package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"userhook/internal/apperrors"
	"userhook/internal/models"
	"userhook/internal/repositories"
)

// Lifecycle events published to the broker.
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// EventPublisher publishes user lifecycle events. The RabbitMQ client
// satisfies this; a nil publisher disables publishing entirely.
type EventPublisher interface {
	PublishUserEvent(event string, payload map[string]any) error
}

// UserService handles business logic for user registration and
// lifecycle management.
type UserService struct {
	repo      repositories.UserRepository
	publisher EventPublisher
}

// NewUserService creates a new UserService. publisher may be nil when
// event publishing is disabled.
func NewUserService(repo repositories.UserRepository, publisher EventPublisher) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

// RegisterUser stores a new user with a server-built provenance
// document and returns the stored row. clientIP records where the
// webhook call came from; the client cannot set any part of the
// document itself.
func (s *UserService) RegisterUser(username, email, clientIP string) (*models.User, error) {
	provenance, err := buildProvenance(clientIP)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to build provenance document: %w", err))
	}

	user := &models.User{
		Username: username,
		Email:    email,
		UserData: provenance,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.publish(EventUserCreated, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
	return user, nil
}

// GetUserByID retrieves a single user.
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.repo.GetByID(id)
}

// ListUsers returns one page of users plus the total count under the
// same filter.
func (s *UserService) ListUsers(filter repositories.ListFilter) ([]models.User, int64, error) {
	return s.repo.List(filter)
}

// UpdateUser applies a sparse update to an existing user. A missing id
// is reported before an empty update, matching the endpoint contract.
func (s *UserService) UpdateUser(id uint, fields repositories.UserUpdate) (*models.User, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}
	if fields.Empty() {
		return nil, apperrors.Validation("no fields provided for update")
	}
	return s.repo.Update(id, fields)
}

// DeleteUser soft-deletes a user and returns its identifying fields.
// Deleting an already-deleted or unknown id reports Not-Found.
func (s *UserService) DeleteUser(id uint) (*models.User, error) {
	user, err := s.repo.SoftDelete(id)
	if err != nil {
		return nil, err
	}

	s.publish(EventUserDeleted, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
	return user, nil
}

// publish sends a lifecycle event best-effort. Broker failures are
// logged and never surface to the HTTP caller.
func (s *UserService) publish(event string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUserEvent(event, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", event, err)
	}
}

// buildProvenance assembles the server-populated user_data document:
// creation channel, source tag, RFC 3339 timestamp, caller address and
// a request id.
func buildProvenance(clientIP string) (datatypes.JSON, error) {
	if clientIP == "" {
		clientIP = "unknown"
	}
	doc := map[string]any{
		"created_via": "webhook",
		"source":      "api",
		"timestamp":   time.Now().Format(time.RFC3339),
		"ip_address":  clientIP,
		"request_id":  uuid.New().String(),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
