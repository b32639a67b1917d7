package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"userhook/internal/apperrors"
	"userhook/internal/models"
	"userhook/internal/repositories"
	"userhook/internal/services"
)

// UserHandler handles the HTTP surface of the user webhook API.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app. The
// create endpoint is reachable under both paths the webhook callers
// use.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/new-user", h.HandleCreateUser)
	router.Post("/webhook/new-user", h.HandleCreateUser)
	router.Get("/users", h.HandleListUsers)
	router.Get("/users/:id", h.HandleGetUser)
	router.Put("/users/:id", h.HandleUpdateUser)
	router.Delete("/users/:id", h.HandleDeleteUser)
}

// CreateUserRequest represents the webhook payload for a new user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// HandleCreateUser receives a new-user webhook call and stores the
// user with a server-built provenance document.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing new-user request body: %v", err)
		return respondError(c, apperrors.Validation("invalid request body: %v", err))
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, validationError(err))
	}

	user, err := h.userService.RegisterUser(req.Username, req.Email, c.IP())
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Email, err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "User received and saved successfully!",
		"user_id":    user.ID,
		"created_at": user.CreatedAt.Format(timeFormat),
		"data_saved": fiber.Map{
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// HandleListUsers returns one page of users with pagination metadata.
// limit and offset are passed through unvalidated, matching the
// contract.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	filter := repositories.ListFilter{
		Limit:  c.QueryInt("limit", 10),
		Offset: c.QueryInt("offset", 0),
		Status: c.Query("status_filter"),
	}

	users, total, err := h.userService.ListUsers(filter)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err)
	}

	payload := make([]fiber.Map, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}

	// pages is a ceiling division; a non-positive limit reports 0
	// pages rather than dividing by zero.
	pages := 0
	if filter.Limit > 0 {
		pages = (int(total) + filter.Limit - 1) / filter.Limit
	}

	return c.JSON(fiber.Map{
		"users": payload,
		"pagination": fiber.Map{
			"total":    total,
			"limit":    filter.Limit,
			"offset":   filter.Offset,
			"has_more": int64(filter.Offset+filter.Limit) < total,
			"pages":    pages,
		},
	})
}

// HandleGetUser fetches a single user by id, in the same shape the
// listing uses.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userPayload(user))
}

// Fields the update endpoint accepts. Anything else in the body is
// silently ignored.
var updatableFields = []string{"username", "email", "status"}

// HandleUpdateUser applies a partial update: only fields present in
// the body are written.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing update request body for user %d: %v", id, err)
		return respondError(c, apperrors.Validation("invalid request body: %v", err))
	}

	fields := repositories.UserUpdate{}
	for _, field := range updatableFields {
		value, ok := body[field]
		if !ok {
			continue
		}
		text, ok := value.(string)
		if !ok {
			return respondError(c, apperrors.Validation("field '%s' must be a string", field))
		}
		fields[field] = text
	}
	if email, ok := fields["email"]; ok {
		if err := h.validate.Var(email, "required,email"); err != nil {
			return respondError(c, apperrors.Validation("field 'email' must be a valid email address"))
		}
	}

	user, err := h.userService.UpdateUser(id, fields)
	if err != nil {
		log.Printf("Error updating user %d: %v", id, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("User ID %d updated successfully!", user.ID),
		"user": fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"status":     user.Status,
			"updated_at": user.UpdatedAt.Format(timeFormat),
		},
	})
}

// HandleDeleteUser soft-deletes a user. A second delete of the same id
// reports Not-Found, the same as an id that never existed.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.userService.DeleteUser(id)
	if err != nil {
		log.Printf("Error deleting user %d: %v", id, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("User '%s' marked as deleted!", user.Username),
		"deleted_user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// parseID extracts the integer id path parameter. A negative id
// parses fine but can never exist, so it takes the Not-Found path
// rather than the validation one.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, apperrors.Validation("user id must be an integer")
	}
	if id < 0 {
		return 0, apperrors.NotFound("user with ID %d not found", id)
	}
	return uint(id), nil
}

// userPayload renders a user row in the full response shape shared by
// the listing and get-by-id endpoints. The stored document is returned
// structurally, never as a raw string.
func userPayload(user *models.User) fiber.Map {
	additional := map[string]any{}
	if len(user.UserData) > 0 {
		if err := json.Unmarshal(user.UserData, &additional); err != nil {
			additional = map[string]any{}
		}
	}
	return fiber.Map{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"additional_data": additional,
		"status":          user.Status,
		"created_at":      user.CreatedAt.Format(timeFormat),
		"updated_at":      user.UpdatedAt.Format(timeFormat),
	}
}

// validationError flattens validator output into a single
// caller-facing message.
func validationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("validation failed: %v", err)
	}
	problems := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		problems = append(problems, fmt.Sprintf("field '%s' failed on the '%s' rule", strings.ToLower(e.Field()), e.Tag()))
	}
	return apperrors.Validation("validation failed: %s", strings.Join(problems, "; "))
}

// respondError is the single error-to-HTTP translation point: every
// handler funnels failures through here.
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperrors.StatusCode(err)).JSON(fiber.Map{
		"detail": apperrors.Detail(err),
	})
}
