package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"userhook/internal/apperrors"
	"userhook/internal/models"
	"userhook/internal/repositories"
	"userhook/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(filter repositories.ListFilter) ([]models.User, int64, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(id uint, fields repositories.UserUpdate) (*models.User, error) {
	args := m.Called(id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SoftDelete(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishUserEvent(event string, payload map[string]any) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

func TestUserService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher)

	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		user.ID = 1
		user.CreatedAt = time.Now()
	}).Return(nil).Once()
	mockPublisher.On("PublishUserEvent", services.EventUserCreated, mock.Anything).Return(nil).Once()

	user, err := service.RegisterUser("ana", "ana@example.com", "203.0.113.7")

	assert.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "ana@example.com", user.Email)

	// The provenance document is server-built and must carry the
	// creation channel, source tag, timestamp, caller address and a
	// request id.
	var provenance map[string]any
	err = json.Unmarshal(user.UserData, &provenance)
	assert.NoError(t, err)
	assert.Equal(t, "webhook", provenance["created_via"])
	assert.Equal(t, "api", provenance["source"])
	assert.Equal(t, "203.0.113.7", provenance["ip_address"])
	assert.NotEmpty(t, provenance["request_id"])
	_, err = time.Parse(time.RFC3339, provenance["timestamp"].(string))
	assert.NoError(t, err)

	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestUserService_RegisterUser_UnknownClientIP(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil)

	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := service.RegisterUser("bob", "bob@example.com", "")

	assert.NoError(t, err)
	var provenance map[string]any
	assert.NoError(t, json.Unmarshal(user.UserData, &provenance))
	assert.Equal(t, "unknown", provenance["ip_address"])
	mockRepo.AssertExpectations(t)
}

func TestUserService_RegisterUser_Conflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher)

	conflict := apperrors.Conflict("the email 'ana@example.com' is already registered")
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(conflict).Once()

	user, err := service.RegisterUser("ana", "ana@example.com", "203.0.113.7")

	assert.Nil(t, user)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	mockPublisher.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_RegisterUser_PublishFailureIsSwallowed(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher)

	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()
	mockPublisher.On("PublishUserEvent", services.EventUserCreated, mock.Anything).
		Return(assert.AnError).Once()

	user, err := service.RegisterUser("ana", "ana@example.com", "203.0.113.7")

	// A broker failure never surfaces to the caller.
	assert.NoError(t, err)
	assert.NotNil(t, user)
	mockPublisher.AssertExpectations(t)
}

func TestUserService_UpdateUser_NoFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil)

	existing := &models.User{ID: 7, Username: "ana", Email: "ana@example.com"}
	mockRepo.On("GetByID", uint(7)).Return(existing, nil).Once()

	user, err := service.UpdateUser(7, repositories.UserUpdate{})

	assert.Nil(t, user)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser_NotFoundBeforeEmptyCheck(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil)

	notFound := apperrors.NotFound("user with ID 99 not found")
	mockRepo.On("GetByID", uint(99)).Return(nil, notFound).Once()

	// A missing id with an empty body reports Not-Found, not
	// Bad-Request: existence is checked first.
	user, err := service.UpdateUser(99, repositories.UserUpdate{})

	assert.Nil(t, user)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil)

	existing := &models.User{ID: 7, Username: "ana", Email: "ana@example.com", Status: "active"}
	updated := &models.User{ID: 7, Username: "ana-updated", Email: "ana@example.com", Status: "active"}
	fields := repositories.UserUpdate{"username": "ana-updated"}

	mockRepo.On("GetByID", uint(7)).Return(existing, nil).Once()
	mockRepo.On("Update", uint(7), fields).Return(updated, nil).Once()

	user, err := service.UpdateUser(7, fields)

	assert.NoError(t, err)
	assert.Equal(t, "ana-updated", user.Username)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher)

	deleted := &models.User{ID: 7, Username: "ana", Email: "ana@example.com", Status: models.StatusDeleted}
	mockRepo.On("SoftDelete", uint(7)).Return(deleted, nil).Once()
	mockPublisher.On("PublishUserEvent", services.EventUserDeleted, mock.Anything).Return(nil).Once()

	user, err := service.DeleteUser(7)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, user.Status)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher)

	notFound := apperrors.NotFound("user with ID 7 not found or already deleted")
	mockRepo.On("SoftDelete", uint(7)).Return(nil, notFound).Once()

	user, err := service.DeleteUser(7)

	assert.Nil(t, user)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	mockPublisher.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}
