package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

const defaultSearchLimit = 50

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{collection: db.Collection("listings"), logger: log}
}

// EnsureIndexes creates the unique slug index plus the supporting phone
// index. The slug index is what actually enforces uniqueness; the allocator
// retry loop only makes collisions rare.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "city", Value: 1}, {Key: "type", Value: 1}},
		},
	})
	return err
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, toListingDocument(listing))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("ListingRepository.Create: duplicate slug on insert", "slug", listing.Slug)
			return domain.ErrSlugTaken
		}
		r.logger.Error("ListingRepository.Create: InsertOne failed", "slug", listing.Slug, "error", err.Error())
		return err
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, slug string, upd domain.ListingUpdate) (*domain.Listing, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.City != nil {
		set["city"] = *upd.City
	}
	if upd.Country != nil {
		set["country"] = *upd.Country
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Amenities != nil {
		set["amenities"] = *upd.Amenities
	}
	if upd.LocationEmbed != nil {
		set["location_embed"] = *upd.LocationEmbed
	}
	if upd.Visibility != nil {
		set["visibility"] = *upd.Visibility
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"slug": slug}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("ListingRepository.Update: FindOneAndUpdate failed", "slug", slug, "error", err.Error())
		return nil, err
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) SetImages(ctx context.Context, slug string, imageIDs []string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{
		"$set": bson.M{"images": imageIDs, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		r.logger.Error("ListingRepository.SetImages: UpdateOne failed", "slug", slug, "error", err.Error())
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		r.logger.Error("ListingRepository.Delete: DeleteOne failed", "slug", slug, "error", err.Error())
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("ListingRepository.FindBySlug: FindOne failed", "slug", slug, "error", err.Error())
		return nil, err
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ListingRepository) PhoneInUse(ctx context.Context, number, excludeSlug string) (bool, error) {
	query := bson.M{"phone": number}
	if excludeSlug != "" {
		query["slug"] = bson.M{"$ne": excludeSlug}
	}
	count, err := r.collection.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.City != "" {
		query["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.City) + "$", Options: "i"}
	}
	if filter.Query != "" {
		// Substring match, not $text: the search contract is
		// case-insensitive containment over these three fields.
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"address": pattern},
			bson.M{"city": pattern},
		}
	}
	if filter.ViewerID != "" {
		query["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"visibility": domain.VisibilityActive},
			bson.M{"user_id": filter.ViewerID},
		}}}
	} else {
		query["visibility"] = domain.VisibilityActive
	}

	sortField := "created_at"
	switch filter.SortBy {
	case "title", "city", "created_at", "updated_at":
		sortField = filter.SortBy
	}
	sortDir := -1
	if filter.SortOrder == "asc" {
		sortDir = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultSearchLimit
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("ListingRepository.FindByFilter: Find failed", "error", err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("ListingRepository.FindByFilter: cursor decode failed", "error", err.Error())
		return nil, err
	}
	return toDomainListings(docs), nil
}
