package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/media"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

// CreateListingInput carries everything the creation endpoint accepts.
// Images are data-URI encoded strings. Slug is only honored for internal
// callers; the public path leaves it empty and lets the allocator run.
type CreateListingInput struct {
	Slug          string
	Title         string
	Description   string
	Address       string
	City          string
	Country       string
	Phone         []string
	Type          domain.PropertyType
	Amenities     []string
	LocationEmbed string
	Visibility    domain.Visibility
	Images        []string
}

// ImageFailure describes one image that could not be attached.
type ImageFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AttachmentReport summarizes the best-effort image attachment of a
// creation call.
type AttachmentReport struct {
	TotalImages         int            `json:"totalImages"`
	TotalCompressedSize int64          `json:"totalCompressedSize"`
	FailedImages        []ImageFailure `json:"failedImages"`
}

// Limits bound a single creation batch before any transcoding starts.
type Limits struct {
	MaxImagesPerListing  int
	MaxImagePayloadBytes int64
}

type ListingUsecase struct {
	repo   domain.ListingRepository
	images domain.ImageRepository
	slugs  *SlugAllocator
	limits Limits
	logger *logger.Logger
}

func NewListingUsecase(repo domain.ListingRepository, images domain.ImageRepository, limits Limits, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:   repo,
		images: images,
		slugs:  NewSlugAllocator(repo, log),
		limits: limits,
		logger: log,
	}
}

// CreateListing runs the full creation pipeline: validate, check phone
// uniqueness, allocate a slug, insert the bare listing, then transcode and
// store each attached image. Per-image failures are logged and reported in
// the AttachmentReport, never propagated; once the listing record exists the
// caller has committed to it and image trouble degrades gracefully.
func (uc *ListingUsecase) CreateListing(ctx context.Context, userID string, in CreateListingInput) (*domain.Listing, *AttachmentReport, error) {
	uc.logger.Info("ListingUsecase.CreateListing: creating listing", "user_id", userID, "title", in.Title, "images", len(in.Images))

	if err := uc.validateCreate(in); err != nil {
		return nil, nil, err
	}

	for _, number := range in.Phone {
		inUse, err := uc.repo.PhoneInUse(ctx, number, "")
		if err != nil {
			uc.logger.Error("ListingUsecase.CreateListing: phone check failed", "number", number, "error", err.Error())
			return nil, nil, err
		}
		if inUse {
			uc.logger.Warn("ListingUsecase.CreateListing: phone already in use", "number", number)
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrPhoneInUse, number)
		}
	}

	slug := in.Slug
	if slug == "" {
		var err error
		slug, err = uc.slugs.Allocate(ctx, in.Title)
		if err != nil {
			return nil, nil, err
		}
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = domain.VisibilityActive
	}

	listing := &domain.Listing{
		Slug:          slug,
		UserID:        userID,
		Title:         in.Title,
		Description:   in.Description,
		Address:       in.Address,
		City:          in.City,
		Country:       in.Country,
		Phone:         in.Phone,
		Type:          in.Type,
		Amenities:     in.Amenities,
		LocationEmbed: in.LocationEmbed,
		Images:        []string{},
		Visibility:    visibility,
	}

	if err := uc.repo.Create(ctx, listing); err != nil {
		// A concurrent allocator may have grabbed the slug between our
		// existence check and this insert; the unique index wins.
		uc.logger.Error("ListingUsecase.CreateListing: insert failed", "slug", slug, "error", err.Error())
		return nil, nil, err
	}

	report := &AttachmentReport{FailedImages: []ImageFailure{}}
	if len(in.Images) == 0 {
		return listing, report, nil
	}

	imageIDs := uc.attachImages(ctx, listing.Slug, in.Images, report)
	if len(imageIDs) > 0 {
		if err := uc.repo.SetImages(ctx, listing.Slug, imageIDs); err != nil {
			uc.logger.Error("ListingUsecase.CreateListing: image backfill failed", "slug", listing.Slug, "error", err.Error())
			return nil, nil, err
		}
		listing.Images = imageIDs
	}
	return listing, report, nil
}

// attachImages transcodes and stores every payload, assigning sequential
// order values to the ones that survive. All images run to completion before
// the caller back-fills the listing, so there is no partial visibility
// mid-upload.
func (uc *ListingUsecase) attachImages(ctx context.Context, slug string, payloads []string, report *AttachmentReport) []string {
	imageIDs := make([]string, 0, len(payloads))
	for i, payload := range payloads {
		name := fmt.Sprintf("image-%d", i)

		raw, _, err := media.DecodeDataURI(payload)
		if err == nil {
			var res *media.Result
			res, err = media.Transcode(raw, name)
			if err == nil {
				var id string
				id, err = uc.images.Put(ctx, &domain.Image{
					ListingSlug:  slug,
					Data:         res.Data,
					ContentType:  res.ContentType,
					Size:         res.Size,
					Order:        len(imageIDs),
					OriginalName: name,
				})
				if err == nil {
					imageIDs = append(imageIDs, id)
					report.TotalImages++
					report.TotalCompressedSize += res.Size
					continue
				}
			}
		}

		uc.logger.Warn("ListingUsecase.attachImages: skipping image", "slug", slug, "index", i, "error", err.Error())
		report.FailedImages = append(report.FailedImages, ImageFailure{Index: i, Reason: err.Error()})
	}
	return imageIDs
}

func (uc *ListingUsecase) validateCreate(in CreateListingInput) error {
	missing := func(field string) error {
		uc.logger.Warn("ListingUsecase.validateCreate: missing field", "field", field)
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidListingData, field)
	}
	if strings.TrimSpace(in.Title) == "" {
		return missing("title")
	}
	if len(in.Phone) == 0 {
		return missing("phone")
	}
	for _, number := range in.Phone {
		if strings.TrimSpace(number) == "" {
			return missing("phone")
		}
	}
	if strings.TrimSpace(in.Address) == "" {
		return missing("address")
	}
	if strings.TrimSpace(in.City) == "" {
		return missing("city")
	}
	if strings.TrimSpace(in.Country) == "" {
		return missing("country")
	}
	if strings.TrimSpace(in.LocationEmbed) == "" {
		return missing("locationEmbed")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown property type %q", domain.ErrInvalidListingData, in.Type)
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidListingData, in.Visibility)
	}
	if uc.limits.MaxImagesPerListing > 0 && len(in.Images) > uc.limits.MaxImagesPerListing {
		return fmt.Errorf("%w: at most %d images per listing", domain.ErrInvalidListingData, uc.limits.MaxImagesPerListing)
	}
	if uc.limits.MaxImagePayloadBytes > 0 {
		var total int64
		for _, img := range in.Images {
			total += int64(len(img))
		}
		if total > uc.limits.MaxImagePayloadBytes {
			return fmt.Errorf("%w: image payload exceeds %d bytes", domain.ErrInvalidListingData, uc.limits.MaxImagePayloadBytes)
		}
	}
	return nil
}

// GetListing returns a listing by slug. Private and draft listings are
// visible only to their owner; everyone else gets not-found rather than a
// hint that the slug exists.
func (uc *ListingUsecase) GetListing(ctx context.Context, slug, viewerID string) (*domain.Listing, error) {
	listing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if listing.Visibility != domain.VisibilityActive && listing.UserID != viewerID {
		uc.logger.Debug("ListingUsecase.GetListing: hiding non-active listing from non-owner", "slug", slug, "viewer_id", viewerID)
		return nil, domain.ErrListingNotFound
	}
	return listing, nil
}

func (uc *ListingUsecase) SearchListings(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	return uc.repo.FindByFilter(ctx, filter)
}

// UpdateListing applies a partial update after re-running the phone
// uniqueness check against every other listing.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, slug, userID string, upd domain.ListingUpdate) (*domain.Listing, error) {
	uc.logger.Info("ListingUsecase.UpdateListing: updating listing", "slug", slug, "user_id", userID)

	listing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if listing.UserID != userID {
		uc.logger.Warn("ListingUsecase.UpdateListing: forbidden", "slug", slug, "owner_id", listing.UserID, "user_id", userID)
		return nil, domain.ErrForbidden
	}

	if upd.Type != nil && !upd.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown property type %q", domain.ErrInvalidListingData, *upd.Type)
	}
	if upd.Visibility != nil && !upd.Visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidListingData, *upd.Visibility)
	}
	if upd.Phone != nil {
		if len(*upd.Phone) == 0 {
			return nil, fmt.Errorf("%w: phone is required", domain.ErrInvalidListingData)
		}
		for _, number := range *upd.Phone {
			inUse, err := uc.repo.PhoneInUse(ctx, number, slug)
			if err != nil {
				return nil, err
			}
			if inUse {
				uc.logger.Warn("ListingUsecase.UpdateListing: phone already in use", "slug", slug, "number", number)
				return nil, fmt.Errorf("%w: %s", domain.ErrPhoneInUse, number)
			}
		}
	}

	updated, err := uc.repo.Update(ctx, slug, upd)
	if err != nil {
		uc.logger.Error("ListingUsecase.UpdateListing: update failed", "slug", slug, "error", err.Error())
		return nil, err
	}
	return updated, nil
}

// DeleteListing removes a listing and its stored images.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, slug, userID string) error {
	uc.logger.Info("ListingUsecase.DeleteListing: deleting listing", "slug", slug, "user_id", userID)

	listing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if listing.UserID != userID {
		uc.logger.Warn("ListingUsecase.DeleteListing: forbidden", "slug", slug, "owner_id", listing.UserID, "user_id", userID)
		return domain.ErrForbidden
	}

	if err := uc.repo.Delete(ctx, slug); err != nil {
		return err
	}
	if err := uc.images.DeleteByListing(ctx, slug); err != nil {
		// The listing itself is gone; orphaned blobs are only a space
		// leak, so log and move on.
		uc.logger.Error("ListingUsecase.DeleteListing: image cleanup failed", "slug", slug, "error", err.Error())
	}
	return nil
}

// ListImages returns image metadata (no bytes) for a listing, optionally
// narrowed to a single image id.
func (uc *ListingUsecase) ListImages(ctx context.Context, listingSlug, imageID string) ([]*domain.Image, error) {
	imgs, err := uc.images.FindByListing(ctx, listingSlug)
	if err != nil {
		return nil, err
	}
	if imageID == "" {
		return imgs, nil
	}
	for _, img := range imgs {
		if img.ID == imageID {
			return []*domain.Image{img}, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

// GetImage returns one stored binary object with its bytes.
func (uc *ListingUsecase) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	return uc.images.Get(ctx, id)
}
