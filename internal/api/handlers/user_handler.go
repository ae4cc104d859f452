package handlers

import (
	"net/http"

	"github.com/isdelr/kanban-be/internal/auth"
	"github.com/isdelr/kanban-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for authentication and user lookup.
type UserHandler struct {
	users services.UserServiceProvider
	tasks services.TaskServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, tasks services.TaskServiceProvider) *UserHandler {
	return &UserHandler{users: users, tasks: tasks}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.users.Register(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		respondServiceError(w, err, "User not found")
		return
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Username == "" || payload.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, user, err := h.users.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		respondServiceError(w, err, "Invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Me returns the user the bearer token belongs to.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CallerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing authorization token")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("User from token not found")
		respondServiceError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// List returns every user, for assignment pickers.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "User not found")
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Tasks returns the tasks assigned to a user.
func (h *UserHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "User not found")
	if !ok {
		return
	}

	if _, err := h.users.GetUserByID(r.Context(), id); err != nil {
		respondServiceError(w, err, "User not found")
		return
	}
	tasks, err := h.tasks.ListTasksAssignedTo(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
