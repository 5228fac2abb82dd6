package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// fallbackImageType is used when a stored object carries no content type.
const fallbackImageType = "image/jpeg"

// HandleGetImage handles GET /image/{id}: binary delivery with immutable
// cache semantics. Stored objects never change once created, so the id
// itself is a valid ETag.
func (h *PropertyHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "PropertyHandler.GetImage", oteltrace.WithAttributes(
		attribute.String("image_id", id),
	))
	defer span.End()

	etag := `"` + id + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img, err := h.usecase.GetImage(ctx, id)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, err)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = fallbackImageType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.Warn("HandleGetImage: failed to write response body", "image_id", id, "error", err.Error())
	}
}
