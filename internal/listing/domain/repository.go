package domain

import "context"

type ListingRepository interface {
	// Create inserts a new listing. A unique-index violation on the slug
	// is reported as ErrSlugTaken.
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, slug string, upd ListingUpdate) (*Listing, error)
	SetImages(ctx context.Context, slug string, imageIDs []string) error
	Delete(ctx context.Context, slug string) error
	FindBySlug(ctx context.Context, slug string) (*Listing, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Listing, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// PhoneInUse reports whether number appears in any listing's phone
	// array, excluding the listing identified by excludeSlug (pass "" to
	// check all listings).
	PhoneInUse(ctx context.Context, number, excludeSlug string) (bool, error)
}

type ImageRepository interface {
	// Put persists metadata and bytes as one record and returns the new
	// object id. Size is computed from the actual byte length, never
	// trusted from the caller.
	Put(ctx context.Context, img *Image) (string, error)
	Get(ctx context.Context, id string) (*Image, error)
	// FindByListing returns metadata only (no Data), ordered by Order asc.
	FindByListing(ctx context.Context, listingSlug string) ([]*Image, error)
	DeleteByListing(ctx context.Context, listingSlug string) error
}
