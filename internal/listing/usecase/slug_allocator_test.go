package usecase

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhunt/property-service/internal/listing/domain"
)

func TestSlugAllocator_FirstAttempt(t *testing.T) {
	repo := newFakeListingRepo()
	alloc := NewSlugAllocator(repo, testLogger())

	slug, err := alloc.Allocate(context.Background(), "Cozy Room Near Campus")
	require.NoError(t, err)
	assert.Equal(t, "cozy-room-near-campus", slug)
}

func TestSlugAllocator_CollisionAddsSuffix(t *testing.T) {
	repo := newFakeListingRepo()
	repo.listings["cozy-room-near-campus"] = &domain.Listing{Slug: "cozy-room-near-campus"}
	alloc := NewSlugAllocator(repo, testLogger())

	slug, err := alloc.Allocate(context.Background(), "Cozy Room Near Campus")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^cozy-room-near-campus-[0-9a-z]+$`), slug)
}

func TestSlugAllocator_EmptyTitleFallsBack(t *testing.T) {
	alloc := NewSlugAllocator(newFakeListingRepo(), testLogger())

	slug, err := alloc.Allocate(context.Background(), "!!!")
	require.NoError(t, err)
	assert.Equal(t, "listing", slug)
}

// allTakenRepo reports every candidate as taken, forcing exhaustion.
type allTakenRepo struct {
	*fakeListingRepo
	checks int
}

func (r *allTakenRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.checks++
	return true, nil
}

func TestSlugAllocator_Exhaustion(t *testing.T) {
	repo := &allTakenRepo{fakeListingRepo: newFakeListingRepo()}
	alloc := NewSlugAllocator(repo, testLogger())

	_, err := alloc.Allocate(context.Background(), "Popular Title")
	assert.ErrorIs(t, err, domain.ErrSlugExhausted)
	assert.Equal(t, maxSlugAttempts, repo.checks)
}
