package domain

import "time"

type Visibility string

const (
	VisibilityActive  Visibility = "active"
	VisibilityPrivate Visibility = "private"
	VisibilityDraft   Visibility = "draft"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityActive, VisibilityPrivate, VisibilityDraft:
		return true
	}
	return false
}

type PropertyType string

const (
	TypeHouse     PropertyType = "house"
	TypeApartment PropertyType = "apartment"
	TypeHostel    PropertyType = "hostel"
	TypeSublet    PropertyType = "sublet"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeHouse, TypeApartment, TypeHostel, TypeSublet:
		return true
	}
	return false
}

// Listing is a property advertisement. Slug is the primary external
// identifier and is immutable once assigned.
type Listing struct {
	Slug          string
	UserID        string
	Title         string
	Description   string
	Address       string
	City          string
	Country       string
	Phone         []string
	Type          PropertyType
	Amenities     []string
	LocationEmbed string
	// Images holds binary object ids in display order. Empty at creation
	// time, back-filled after transcoding.
	Images     []string
	Visibility Visibility
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Image is a stored binary object: one compressed image plus metadata.
// Size must always equal len(Data).
type Image struct {
	ID           string
	ListingSlug  string
	Data         []byte
	ContentType  string
	Size         int64
	Order        int
	OriginalName string
	CreatedAt    time.Time
}

// Filter narrows listing searches. ViewerID, when set, lets the owner see
// their own private and draft listings in results.
type Filter struct {
	Type      PropertyType
	City      string
	Query     string
	SortBy    string
	SortOrder string
	Limit     int64
	ViewerID  string
}

// ListingUpdate carries a partial update; nil fields are left untouched.
type ListingUpdate struct {
	Title         *string
	Description   *string
	Address       *string
	City          *string
	Country       *string
	Phone         *[]string
	Type          *PropertyType
	Amenities     *[]string
	LocationEmbed *string
	Visibility    *Visibility
}
