package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/skip2/go-qrcode"

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

var validate = validator.New()

type HTTPHandler struct {
	service  ports.LinkService
	resolver ports.ResolverService
}

func NewHTTPHandler(service ports.LinkService, resolver ports.ResolverService) *HTTPHandler {
	return &HTTPHandler{service: service, resolver: resolver}
}

// CreateLinkRequest payload. Tags is a comma-separated string, matching
// what the dashboard submits.
type CreateLinkRequest struct {
	OriginalURL string     `json:"originalUrl" validate:"required"`
	Title       string     `json:"title" validate:"max=100"`
	Description string     `json:"description" validate:"max=200"`
	Tags        string     `json:"tags"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// UpdateLinkRequest payload; absent fields are left untouched.
type UpdateLinkRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Tags        *string `json:"tags"`
	IsActive    *bool   `json:"isActive"`
}

// Create short link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	link, created, err := h.service.Create(r.Context(), ownerFrom(r), ports.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Idempotent hit returns the existing record with 200, a fresh mint 201.
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		linksCreatedTotal.Inc()
	}
	writeJSON(w, status, link)
}

// Redirect to original URL
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("shortCode")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Short code missing"})
		return
	}

	target, err := h.resolver.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectsTotal.WithLabelValues("not_found").Inc()
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "URL not found or inactive"})
			return
		}
		redirectsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}

	redirectsTotal.WithLabelValues("ok").Inc()
	http.Redirect(w, r, target, http.StatusFound)
}

// Get single link
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	link, err := h.service.Get(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Update link metadata
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	link, err := h.service.Update(r.Context(), ownerFrom(r), id, ports.UpdateLinkInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Delete link permanently
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ownerFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "URL removed"})
}

// List owner's links
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := ports.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
	}

	links, total, err := h.service.List(r.Context(), ownerFrom(r), q)
	if err != nil {
		writeError(w, err)
		return
	}

	if links == nil {
		links = []domain.Link{}
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"urls":        links,
		"totalPages":  totalPages,
		"currentPage": page,
		"total":       total,
	})
}

// AnalyticsSummary for the owner's dashboard
func (h *HTTPHandler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AnalyticsSummary(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// QR renders the short URL as a PNG QR code.
func (h *HTTPHandler) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	link, err := h.service.Get(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size < 64 || size > 1024 {
		size = 256
	}

	png, err := qrcode.Encode(link.ShortURL, qrcode.Medium, size)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy onto HTTP statuses. Conflict never
// reaches here on the create path; anything unrecognized is a server error.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "URL not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "User not authorized"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
	}
}
