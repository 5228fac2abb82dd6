package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomhunt/property-service/internal/listing/domain"
)

// listingDocument is the MongoDB shape of a domain.Listing. The slug is the
// document key; a unique index on it is the authoritative uniqueness guard.
type listingDocument struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	Slug          string              `bson:"slug"`
	UserID        string              `bson:"user_id"`
	Title         string              `bson:"title"`
	Description   string              `bson:"description,omitempty"`
	Address       string              `bson:"address"`
	City          string              `bson:"city"`
	Country       string              `bson:"country"`
	Phone         []string            `bson:"phone"`
	Type          domain.PropertyType `bson:"type"`
	Amenities     []string            `bson:"amenities,omitempty"`
	LocationEmbed string              `bson:"location_embed"`
	Images        []string            `bson:"images"`
	Visibility    domain.Visibility   `bson:"visibility"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

// imageDocument is the write-side shape of a stored binary object: bytes and
// metadata live in one record so a single insert keeps size and data
// consistent.
type imageDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ListingSlug  string             `bson:"listing_slug"`
	Data         primitive.Binary   `bson:"data"`
	ContentType  string             `bson:"content_type"`
	Size         int64              `bson:"size"`
	Order        int                `bson:"order"`
	OriginalName string             `bson:"original_name,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// rawImageDocument is the read-side shape. Data is left untyped because
// historical writers stored the payload under more than one BSON encoding;
// normalizeBinary flattens whatever is found.
type rawImageDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	ListingSlug  string             `bson:"listing_slug"`
	Data         interface{}        `bson:"data"`
	ContentType  string             `bson:"content_type"`
	Size         int64              `bson:"size"`
	Order        int                `bson:"order"`
	OriginalName string             `bson:"original_name,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// normalizeBinary flattens the stored byte container into a plain byte
// slice. Mongo returns primitive.Binary for BSON binary fields, but raw
// buffers and string payloads have also been observed historically.
func normalizeBinary(v interface{}) ([]byte, error) {
	switch data := v.(type) {
	case primitive.Binary:
		return data.Data, nil
	case []byte:
		return data, nil
	case string:
		return []byte(data), nil
	case nil:
		return nil, fmt.Errorf("binary payload is absent")
	default:
		return nil, fmt.Errorf("unsupported binary representation %T", v)
	}
}

func toListingDocument(l *domain.Listing) *listingDocument {
	if l == nil {
		return nil
	}
	return &listingDocument{
		Slug:          l.Slug,
		UserID:        l.UserID,
		Title:         l.Title,
		Description:   l.Description,
		Address:       l.Address,
		City:          l.City,
		Country:       l.Country,
		Phone:         l.Phone,
		Type:          l.Type,
		Amenities:     l.Amenities,
		LocationEmbed: l.LocationEmbed,
		Images:        l.Images,
		Visibility:    l.Visibility,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toDomainListing(d *listingDocument) *domain.Listing {
	if d == nil {
		return nil
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Listing{
		Slug:          d.Slug,
		UserID:        d.UserID,
		Title:         d.Title,
		Description:   d.Description,
		Address:       d.Address,
		City:          d.City,
		Country:       d.Country,
		Phone:         d.Phone,
		Type:          d.Type,
		Amenities:     d.Amenities,
		LocationEmbed: d.LocationEmbed,
		Images:        images,
		Visibility:    d.Visibility,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	domainListings := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		domainListings = append(domainListings, toDomainListing(doc))
	}
	return domainListings
}

func toDomainImageMeta(d *rawImageDocument) *domain.Image {
	if d == nil {
		return nil
	}
	return &domain.Image{
		ID:           d.ID.Hex(),
		ListingSlug:  d.ListingSlug,
		ContentType:  d.ContentType,
		Size:         d.Size,
		Order:        d.Order,
		OriginalName: d.OriginalName,
		CreatedAt:    d.CreatedAt,
	}
}
