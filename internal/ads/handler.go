package ads

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var adErrors = []httputil.ErrorMapping{
	{Error: ErrAdNotFound, Status: http.StatusNotFound},
	{Error: access.ErrForbidden, Status: http.StatusForbidden},
}

// Handler handles HTTP requests for ads.
type Handler struct {
	service *Service
}

// NewHandler creates a new ads handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers read-only ad routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/ads", h.ListAds)
	r.Get("/ads/{id}", h.GetAd)
}

// RegisterProtectedRoutes registers ad routes that require an admitted principal.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/ads", h.CreateAd)
	r.Put("/ads/{id}", h.UpdateAd)
	r.Delete("/ads/{id}", h.DeleteAd)
}

// ListAds handles GET /ads.
func (h *Handler) ListAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.service.ListAds(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, adErrors)
		return
	}

	httputil.Success(w, http.StatusOK, ads)
}

// GetAd handles GET /ads/{id}.
func (h *Handler) GetAd(w http.ResponseWriter, r *http.Request) {
	ad, err := h.service.GetAd(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, adErrors)
		return
	}

	httputil.Success(w, http.StatusOK, ad)
}

// CreateAd handles POST /ads.
func (h *Handler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req CreateAdInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	ad, err := h.service.CreateAd(r.Context(), httputil.GetPrincipal(r.Context()), req)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, adErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, ad)
}

// UpdateAd handles PUT /ads/{id}.
func (h *Handler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	var req UpdateAdInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	ad, err := h.service.UpdateAd(r.Context(), httputil.GetPrincipal(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, adErrors)
		return
	}

	httputil.Success(w, http.StatusOK, ad)
}

// DeleteAd handles DELETE /ads/{id}.
func (h *Handler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAd(r.Context(), httputil.GetPrincipal(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, adErrors)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
