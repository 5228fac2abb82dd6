package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	gslug "github.com/gosimple/slug"

	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

// maxSlugAttempts bounds the retry loop so pathological collision density
// fails closed with ErrSlugExhausted instead of looping forever.
const maxSlugAttempts = 20

// SlugAllocator derives a URL-safe identifier from a listing title and
// guarantees it is not already present in the listing store. On collision it
// appends a fresh random base36 suffix and retries. Drawing a new random
// number per attempt (instead of incrementing) keeps concurrent creators of
// the same title from marching through identical candidate sequences, at the
// cost of unbounded expected iterations under adversarial load. The
// check-then-insert is not atomic; the unique index on slug remains the
// authoritative guard.
type SlugAllocator struct {
	repo   domain.ListingRepository
	logger *logger.Logger
}

func NewSlugAllocator(repo domain.ListingRepository, log *logger.Logger) *SlugAllocator {
	return &SlugAllocator{repo: repo, logger: log}
}

func (a *SlugAllocator) Allocate(ctx context.Context, title string) (string, error) {
	base := gslug.Make(title)
	if base == "" {
		base = "listing"
	}

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		exists, err := a.repo.SlugExists(ctx, candidate)
		if err != nil {
			a.logger.Error("SlugAllocator.Allocate: existence check failed", "candidate", candidate, "error", err.Error())
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strconv.FormatInt(int64(rand.Intn(100)), 36)
		candidate = base + "-" + suffix
		a.logger.Debug("SlugAllocator.Allocate: slug collision, retrying", "base", base, "next", candidate, "attempt", attempt+1)
	}

	a.logger.Error("SlugAllocator.Allocate: attempts exhausted", "base", base)
	return "", fmt.Errorf("%w: base %q", domain.ErrSlugExhausted, base)
}
