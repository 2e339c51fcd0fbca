package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/idgateway/internal/api/apierr"
	"github.com/mcoot/idgateway/internal/api/request"
	"github.com/mcoot/idgateway/internal/api/response"
	"github.com/mcoot/idgateway/internal/services/users"
)

// Response messages
const (
	MessageUserStored = "User data stored successfully"
	MessageEmailAdded = "Email added successfully"
)

// UserHandler handles the user record write endpoints
type UserHandler struct {
	users  *users.Service
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *users.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// Store handles POST /store
func (h *UserHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req request.StoreRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	_, err := h.users.Store(r.Context(), users.StoreInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, MessageUserStored)
}

// AddEmail handles POST /addemail
func (h *UserHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	var req request.EmailRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if _, err := h.users.AddEmail(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, MessageEmailAdded)
}

// SaveUserData handles POST /save-user-data
func (h *UserHandler) SaveUserData(w http.ResponseWriter, r *http.Request) {
	var req request.EmailRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if _, err := h.users.SaveUserData(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, MessageUserStored)
}

// writeError logs failures that surface as a 500 before writing the response
func (h *UserHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.Status(err) >= http.StatusInternalServerError {
		h.logger.Error("user write failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	apierr.WriteError(w, err)
}
