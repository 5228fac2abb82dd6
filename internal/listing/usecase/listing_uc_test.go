package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithOutput(&logger.LoggerConfig{Level: "error", Format: "text"}, &logger.TextFormatter{}, io.Discard)
}

type fakeListingRepo struct {
	listings map[string]*domain.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[string]*domain.Listing{}}
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *domain.Listing) error {
	if _, ok := r.listings[listing.Slug]; ok {
		return domain.ErrSlugTaken
	}
	cp := *listing
	r.listings[listing.Slug] = &cp
	return nil
}

func (r *fakeListingRepo) Update(ctx context.Context, slug string, upd domain.ListingUpdate) (*domain.Listing, error) {
	l, ok := r.listings[slug]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	if upd.Title != nil {
		l.Title = *upd.Title
	}
	if upd.Phone != nil {
		l.Phone = *upd.Phone
	}
	if upd.City != nil {
		l.City = *upd.City
	}
	if upd.Visibility != nil {
		l.Visibility = *upd.Visibility
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) SetImages(ctx context.Context, slug string, imageIDs []string) error {
	l, ok := r.listings[slug]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Images = imageIDs
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, slug string) error {
	if _, ok := r.listings[slug]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.listings, slug)
	return nil
}

func (r *fakeListingRepo) FindBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	l, ok := r.listings[slug]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.Visibility != domain.VisibilityActive && l.UserID != filter.ViewerID {
			continue
		}
		if filter.City != "" && l.City != filter.City {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeListingRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := r.listings[slug]
	return ok, nil
}

func (r *fakeListingRepo) PhoneInUse(ctx context.Context, number, excludeSlug string) (bool, error) {
	for slug, l := range r.listings {
		if slug == excludeSlug {
			continue
		}
		for _, n := range l.Phone {
			if n == number {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeImageRepo struct {
	objects map[string]*domain.Image
	seq     int
	putErr  error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{objects: map[string]*domain.Image{}}
}

func (r *fakeImageRepo) Put(ctx context.Context, img *domain.Image) (string, error) {
	if r.putErr != nil {
		return "", r.putErr
	}
	r.seq++
	id := fmt.Sprintf("%024x", r.seq)
	cp := *img
	cp.ID = id
	cp.Size = int64(len(img.Data))
	r.objects[id] = &cp
	return id, nil
}

func (r *fakeImageRepo) Get(ctx context.Context, id string) (*domain.Image, error) {
	img, ok := r.objects[id]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	cp := *img
	return &cp, nil
}

func (r *fakeImageRepo) FindByListing(ctx context.Context, listingSlug string) ([]*domain.Image, error) {
	var out []*domain.Image
	for _, img := range r.objects {
		if img.ListingSlug == listingSlug {
			cp := *img
			cp.Data = nil
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) DeleteByListing(ctx context.Context, listingSlug string) error {
	for id, img := range r.objects {
		if img.ListingSlug == listingSlug {
			delete(r.objects, id)
		}
	}
	return nil
}

func pngDataURI(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y % 256), B: uint8(x % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func validInput() CreateListingInput {
	return CreateListingInput{
		Title:         "Cozy Room Near Campus",
		Address:       "12 College Road",
		City:          "Dhaka",
		Country:       "Bangladesh",
		Phone:         []string{"+8801711111111"},
		Type:          domain.TypeApartment,
		Amenities:     []string{"wifi", "parking"},
		LocationEmbed: "https://maps.example.com/embed?pb=abc123",
	}
}

func newUsecase(repo *fakeListingRepo, images *fakeImageRepo) *ListingUsecase {
	return NewListingUsecase(repo, images, Limits{MaxImagesPerListing: 12, MaxImagePayloadBytes: 32 << 20}, testLogger())
}

func TestCreateListing_NoImages(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	listing, report, err := uc.CreateListing(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^cozy-room-near-campus(-[0-9a-z]+)?$`), listing.Slug)
	assert.Equal(t, "user-1", listing.UserID)
	assert.Equal(t, domain.VisibilityActive, listing.Visibility)
	assert.Empty(t, listing.Images)
	assert.Equal(t, 0, report.TotalImages)
	assert.Empty(t, report.FailedImages)

	stored, err := repo.FindBySlug(context.Background(), listing.Slug)
	require.NoError(t, err)
	assert.Equal(t, listing.Title, stored.Title)
}

func TestCreateListing_Validation(t *testing.T) {
	uc := newUsecase(newFakeListingRepo(), newFakeImageRepo())

	cases := map[string]func(*CreateListingInput){
		"missing title":   func(in *CreateListingInput) { in.Title = "  " },
		"no phones":       func(in *CreateListingInput) { in.Phone = nil },
		"blank phone":     func(in *CreateListingInput) { in.Phone = []string{""} },
		"missing address": func(in *CreateListingInput) { in.Address = "" },
		"missing city":    func(in *CreateListingInput) { in.City = "" },
		"missing country": func(in *CreateListingInput) { in.Country = "" },
		"missing embed":   func(in *CreateListingInput) { in.LocationEmbed = "" },
		"bad type":        func(in *CreateListingInput) { in.Type = "castle" },
		"bad visibility":  func(in *CreateListingInput) { in.Visibility = "hidden" },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		_, _, err := uc.CreateListing(context.Background(), "user-1", in)
		assert.ErrorIs(t, err, domain.ErrInvalidListingData, name)
	}
}

func TestCreateListing_PhoneConflict(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	_, _, err := uc.CreateListing(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Different Place Entirely"
	_, _, err = uc.CreateListing(context.Background(), "user-2", in)
	assert.ErrorIs(t, err, domain.ErrPhoneInUse)
	assert.Len(t, repo.listings, 1)
}

func TestCreateListing_SlugCollision(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	first, _, err := uc.CreateListing(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, "cozy-room-near-campus", first.Slug)

	in := validInput()
	in.Phone = []string{"+8801722222222"}
	second, _, err := uc.CreateListing(context.Background(), "user-2", in)
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Regexp(t, regexp.MustCompile(`^cozy-room-near-campus-[0-9a-z]+$`), second.Slug)
}

func TestCreateListing_ExplicitSlugTaken(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	in := validInput()
	in.Slug = "fixed-slug"
	_, _, err := uc.CreateListing(context.Background(), "user-1", in)
	require.NoError(t, err)

	in2 := validInput()
	in2.Slug = "fixed-slug"
	in2.Phone = []string{"+8801733333333"}
	_, _, err = uc.CreateListing(context.Background(), "user-2", in2)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateListing_BestEffortImages(t *testing.T) {
	repo := newFakeListingRepo()
	images := newFakeImageRepo()
	uc := newUsecase(repo, images)

	in := validInput()
	in.Images = []string{
		pngDataURI(t, 100, 80),
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("corrupt bytes")),
		pngDataURI(t, 200, 160),
	}

	listing, report, err := uc.CreateListing(context.Background(), "user-1", in)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalImages)
	assert.Positive(t, report.TotalCompressedSize)
	require.Len(t, report.FailedImages, 1)
	assert.Equal(t, 1, report.FailedImages[0].Index)
	assert.Len(t, listing.Images, 2)

	// Orders are sequential over the survivors only.
	stored, err := images.FindByListing(context.Background(), listing.Slug)
	require.NoError(t, err)
	orders := []int{}
	for _, img := range stored {
		orders = append(orders, img.Order)
	}
	assert.ElementsMatch(t, []int{0, 1}, orders)
}

func TestCreateListing_NotADataURI(t *testing.T) {
	uc := newUsecase(newFakeListingRepo(), newFakeImageRepo())

	in := validInput()
	in.Images = []string{"just some text"}

	listing, report, err := uc.CreateListing(context.Background(), "user-1", in)
	require.NoError(t, err)
	assert.Empty(t, listing.Images)
	assert.Equal(t, 0, report.TotalImages)
	require.Len(t, report.FailedImages, 1)
}

func TestCreateListing_TooManyImages(t *testing.T) {
	repo := newFakeListingRepo()
	uc := NewListingUsecase(repo, newFakeImageRepo(), Limits{MaxImagesPerListing: 2}, testLogger())

	in := validInput()
	in.Images = []string{"a", "b", "c"}
	_, _, err := uc.CreateListing(context.Background(), "user-1", in)
	assert.ErrorIs(t, err, domain.ErrInvalidListingData)
	assert.Empty(t, repo.listings)
}

func TestGetListing_VisibilityGate(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	in := validInput()
	in.Visibility = domain.VisibilityPrivate
	listing, _, err := uc.CreateListing(context.Background(), "owner", in)
	require.NoError(t, err)

	_, err = uc.GetListing(context.Background(), listing.Slug, "stranger")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	got, err := uc.GetListing(context.Background(), listing.Slug, "owner")
	require.NoError(t, err)
	assert.Equal(t, listing.Slug, got.Slug)
}

func TestUpdateListing_PhoneRecheck(t *testing.T) {
	repo := newFakeListingRepo()
	uc := newUsecase(repo, newFakeImageRepo())

	first, _, err := uc.CreateListing(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Second Place"
	in.Phone = []string{"+8801744444444"}
	second, _, err := uc.CreateListing(context.Background(), "user-2", in)
	require.NoError(t, err)

	// Stealing the first listing's number fails.
	stolen := []string{"+8801711111111"}
	_, err = uc.UpdateListing(context.Background(), second.Slug, "user-2", domain.ListingUpdate{Phone: &stolen})
	assert.ErrorIs(t, err, domain.ErrPhoneInUse)

	// Re-submitting its own number is fine: the check excludes the
	// listing's own slug.
	own := []string{"+8801711111111", "+8801755555555"}
	updated, err := uc.UpdateListing(context.Background(), first.Slug, "user-1", domain.ListingUpdate{Phone: &own})
	require.NoError(t, err)
	assert.Equal(t, own, updated.Phone)
}

func TestUpdateListing_Forbidden(t *testing.T) {
	uc := newUsecase(newFakeListingRepo(), newFakeImageRepo())

	listing, _, err := uc.CreateListing(context.Background(), "owner", validInput())
	require.NoError(t, err)

	title := "Hijacked"
	_, err = uc.UpdateListing(context.Background(), listing.Slug, "stranger", domain.ListingUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteListing_RemovesImages(t *testing.T) {
	repo := newFakeListingRepo()
	images := newFakeImageRepo()
	uc := newUsecase(repo, images)

	in := validInput()
	in.Images = []string{pngDataURI(t, 50, 40)}
	listing, _, err := uc.CreateListing(context.Background(), "owner", in)
	require.NoError(t, err)
	require.Len(t, listing.Images, 1)

	require.NoError(t, uc.DeleteListing(context.Background(), listing.Slug, "owner"))

	_, err = repo.FindBySlug(context.Background(), listing.Slug)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	remaining, err := images.FindByListing(context.Background(), listing.Slug)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListImages_FilterByID(t *testing.T) {
	repo := newFakeListingRepo()
	images := newFakeImageRepo()
	uc := newUsecase(repo, images)

	in := validInput()
	in.Images = []string{pngDataURI(t, 50, 40), pngDataURI(t, 60, 40)}
	listing, _, err := uc.CreateListing(context.Background(), "owner", in)
	require.NoError(t, err)
	require.Len(t, listing.Images, 2)

	all, err := uc.ListImages(context.Background(), listing.Slug, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := uc.ListImages(context.Background(), listing.Slug, listing.Images[0])
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, listing.Images[0], one[0].ID)

	_, err = uc.ListImages(context.Background(), listing.Slug, "ffffffffffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}
