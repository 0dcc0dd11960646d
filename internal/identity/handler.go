package identity

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var identityErrors = []httputil.ErrorMapping{
	{Error: ErrUserNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrInvalidCredentials, Status: http.StatusBadRequest},
	{Error: access.ErrForbidden, Status: http.StatusForbidden},
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service *Service
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers public authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}

// RegisterProtectedRoutes registers user routes that require an admitted principal.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/me", h.Me)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// LoginResponse represents login response.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	token, user, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	httputil.Success(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r.Context())
	if principal == nil {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetSelf(r.Context(), principal)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	httputil.Success(w, http.StatusOK, user)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), httputil.GetPrincipal(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	httputil.Success(w, http.StatusOK, users)
}

// UpdateUser handles PUT /users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), httputil.GetPrincipal(r.Context()), id, req)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	httputil.Success(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), httputil.GetPrincipal(r.Context()), id); err != nil {
		httputil.HandleError(r.Context(), w, err, identityErrors)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
