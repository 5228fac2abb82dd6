package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/roomhunt/property-service/internal/adapter/http/middleware"
	"github.com/roomhunt/property-service/internal/adapter/messaging/nats"
	"github.com/roomhunt/property-service/internal/adapter/repository/cache"
	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/listing/usecase"
	"github.com/roomhunt/property-service/internal/mailer"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

var tracer = otel.Tracer("property-service/http-handler")

// PropertyHandler serves the REST surface: listing CRUD, search, image
// metadata and binary image delivery.
type PropertyHandler struct {
	usecase   *usecase.ListingUsecase
	cache     *cache.ListingCache
	publisher *nats.Publisher
	mail      mailer.Sender
	logger    *logger.Logger
}

func NewPropertyHandler(uc *usecase.ListingUsecase, listingCache *cache.ListingCache, publisher *nats.Publisher, mail mailer.Sender, log *logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		usecase:   uc,
		cache:     listingCache,
		publisher: publisher,
		mail:      mail,
		logger:    log,
	}
}

type createPropertyRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Phone         []string `json:"phone"`
	Type          string   `json:"type"`
	Amenities     []string `json:"amenities"`
	LocationEmbed string   `json:"locationEmbed"`
	Visibility    string   `json:"visibility"`
	Images        []string `json:"images"`
}

type updatePropertyRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Address       *string   `json:"address"`
	City          *string   `json:"city"`
	Country       *string   `json:"country"`
	Phone         *[]string `json:"phone"`
	Type          *string   `json:"type"`
	Amenities     *[]string `json:"amenities"`
	LocationEmbed *string   `json:"locationEmbed"`
	Visibility    *string   `json:"visibility"`
}

type listingResponse struct {
	Slug          string    `json:"slug"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Phone         []string  `json:"phone"`
	Type          string    `json:"type"`
	Amenities     []string  `json:"amenities"`
	LocationEmbed string    `json:"locationEmbed"`
	Images        []string  `json:"images"`
	Visibility    string    `json:"visibility"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type createPropertyResponse struct {
	Listing listingResponse           `json:"listing"`
	Meta    *usecase.AttachmentReport `json:"meta"`
}

type imageMetaResponse struct {
	ID           string    `json:"id"`
	ListingSlug  string    `json:"propertySlug"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Order        int       `json:"order"`
	OriginalName string    `json:"originalName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingResponse{
		Slug:          l.Slug,
		UserID:        l.UserID,
		Title:         l.Title,
		Description:   l.Description,
		Address:       l.Address,
		City:          l.City,
		Country:       l.Country,
		Phone:         l.Phone,
		Type:          string(l.Type),
		Amenities:     l.Amenities,
		LocationEmbed: l.LocationEmbed,
		Images:        images,
		Visibility:    string(l.Visibility),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (h *PropertyHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("PropertyHandler: failed to encode response", "error", err.Error())
	}
}

func (h *PropertyHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidListingData), errors.Is(err, domain.ErrInvalidImageID):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPhoneInUse), errors.Is(err, domain.ErrSlugTaken), errors.Is(err, domain.ErrSlugExhausted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, domain.ErrImageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("PropertyHandler: internal error", "error", err.Error())
		h.writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HandleCreateProperty handles POST /property.
func (h *PropertyHandler) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("HandleCreateProperty: invalid request body", "error", err.Error())
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ctx, span := tracer.Start(r.Context(), "PropertyHandler.CreateProperty", oteltrace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("title", req.Title),
		attribute.Int("images", len(req.Images)),
	))
	defer span.End()

	listing, report, err := h.usecase.CreateListing(ctx, userID, usecase.CreateListingInput{
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Type:          domain.PropertyType(req.Type),
		Amenities:     req.Amenities,
		LocationEmbed: req.LocationEmbed,
		Visibility:    domain.Visibility(req.Visibility),
		Images:        req.Images,
	})
	if err != nil {
		span.RecordError(err)
		h.writeError(w, err)
		return
	}

	if h.publisher != nil {
		event := nats.NewListingEvent(listing.Slug, listing.UserID, len(listing.Images))
		if err := h.publisher.Publish(ctx, nats.SubjectListingCreated, event); err != nil {
			h.logger.Error("HandleCreateProperty: failed to publish event", "slug", listing.Slug, "error", err.Error())
		}
	}

	if h.mail != nil {
		if email, ok := middleware.EmailFromContext(r.Context()); ok {
			go func(email, title string) {
				if err := h.mail.SendListingPublishedEmail(email, title); err != nil {
					h.logger.Warn("HandleCreateProperty: notification mail failed", "error", err.Error())
				}
			}(email, listing.Title)
		}
	}

	h.writeJSON(w, http.StatusCreated, createPropertyResponse{
		Listing: toListingResponse(listing),
		Meta:    report,
	})
}

// HandleGetProperty handles GET /property/{slug}.
func (h *PropertyHandler) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	viewerID, _ := middleware.UserIDFromContext(r.Context())

	if h.cache != nil {
		cached, err := h.cache.GetListing(r.Context(), slug)
		if err != nil {
			h.logger.Warn("HandleGetProperty: cache lookup failed", "slug", slug, "error", err.Error())
		}
		if cached != nil && cached.Visibility == domain.VisibilityActive {
			h.writeJSON(w, http.StatusOK, toListingResponse(cached))
			return
		}
	}

	listing, err := h.usecase.GetListing(r.Context(), slug, viewerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.cache != nil && listing.Visibility == domain.VisibilityActive {
		if err := h.cache.SetListing(r.Context(), listing); err != nil {
			h.logger.Warn("HandleGetProperty: cache store failed", "slug", slug, "error", err.Error())
		}
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleListProperties handles GET /property. With a propertySlug query
// parameter it serves image metadata for that listing (optionally narrowed
// by imageId); otherwise it searches listings.
func (h *PropertyHandler) HandleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if propertySlug := q.Get("propertySlug"); propertySlug != "" {
		images, err := h.usecase.ListImages(r.Context(), propertySlug, q.Get("imageId"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		resp := make([]imageMetaResponse, 0, len(images))
		for _, img := range images {
			resp = append(resp, imageMetaResponse{
				ID:           img.ID,
				ListingSlug:  img.ListingSlug,
				ContentType:  img.ContentType,
				Size:         img.Size,
				Order:        img.Order,
				OriginalName: img.OriginalName,
				CreatedAt:    img.CreatedAt,
			})
		}
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	viewerID, _ := middleware.UserIDFromContext(r.Context())
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	filter := domain.Filter{
		Type:      domain.PropertyType(q.Get("type")),
		City:      q.Get("city"),
		Query:     q.Get("q"),
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
		Limit:     limit,
		ViewerID:  viewerID,
	}

	listings, err := h.usecase.SearchListings(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, toListingResponse(l))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateProperty handles PATCH /property/{slug}.
func (h *PropertyHandler) HandleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	slug := chi.URLParam(r, "slug")

	var req updatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("HandleUpdateProperty: invalid request body", "slug", slug, "error", err.Error())
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	upd := domain.ListingUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Amenities:     req.Amenities,
		LocationEmbed: req.LocationEmbed,
	}
	if req.Type != nil {
		t := domain.PropertyType(*req.Type)
		upd.Type = &t
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		upd.Visibility = &v
	}

	listing, err := h.usecase.UpdateListing(r.Context(), slug, userID, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.DeleteListing(r.Context(), slug); err != nil {
			h.logger.Warn("HandleUpdateProperty: cache invalidation failed", "slug", slug, "error", err.Error())
		}
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleDeleteProperty handles DELETE /property/{slug}.
func (h *PropertyHandler) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	slug := chi.URLParam(r, "slug")

	if err := h.usecase.DeleteListing(r.Context(), slug, userID); err != nil {
		h.writeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.DeleteListing(r.Context(), slug); err != nil {
			h.logger.Warn("HandleDeleteProperty: cache invalidation failed", "slug", slug, "error", err.Error())
		}
	}
	if h.publisher != nil {
		event := nats.NewListingEvent(slug, userID, 0)
		if err := h.publisher.Publish(r.Context(), nats.SubjectListingDeleted, event); err != nil {
			h.logger.Error("HandleDeleteProperty: failed to publish event", "slug", slug, "error", err.Error())
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
