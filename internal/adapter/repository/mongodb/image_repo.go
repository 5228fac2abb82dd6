package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roomhunt/property-service/internal/listing/domain"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

// ImageRepository stores compressed images as single Mongo documents:
// metadata and bytes in one record, one insert.
type ImageRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewImageRepository(db *mongo.Database, log *logger.Logger) *ImageRepository {
	return &ImageRepository{collection: db.Collection("images"), logger: log}
}

func (r *ImageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_slug", Value: 1}, {Key: "order", Value: 1}},
	})
	return err
}

func (r *ImageRepository) Put(ctx context.Context, img *domain.Image) (string, error) {
	doc := &imageDocument{
		ListingSlug:  img.ListingSlug,
		Data:         primitive.Binary{Subtype: 0x00, Data: img.Data},
		ContentType:  img.ContentType,
		Size:         int64(len(img.Data)),
		Order:        img.Order,
		OriginalName: img.OriginalName,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("ImageRepository.Put: InsertOne failed", "listing_slug", img.ListingSlug, "error", err.Error())
		return "", err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		r.logger.Error("ImageRepository.Put: unexpected inserted id type")
		return "", errors.New("failed to retrieve generated image id")
	}

	img.ID = oid.Hex()
	img.Size = doc.Size
	img.CreatedAt = doc.CreatedAt
	r.logger.Info("ImageRepository.Put: image stored", "id", img.ID, "listing_slug", img.ListingSlug, "size", doc.Size, "order", doc.Order)
	return img.ID, nil
}

// Get loads one binary object and flattens its byte payload. If the stored
// shape cannot be normalized the image is served with an empty payload
// rather than failing the request; the error is logged loudly because an
// empty body can mask real corruption.
func (r *ImageRepository) Get(ctx context.Context, id string) (*domain.Image, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidImageID
	}

	var doc rawImageDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		r.logger.Error("ImageRepository.Get: FindOne failed", "id", id, "error", err.Error())
		return nil, err
	}

	img := toDomainImageMeta(&doc)
	data, err := normalizeBinary(doc.Data)
	if err != nil {
		r.logger.Error("ImageRepository.Get: failed to normalize stored payload, serving empty body", "id", id, "error", err.Error())
		data = []byte{}
	}
	img.Data = data
	return img, nil
}

func (r *ImageRepository) FindByListing(ctx context.Context, listingSlug string) ([]*domain.Image, error) {
	findOptions := options.Find().
		SetProjection(bson.M{"data": 0}).
		SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"listing_slug": listingSlug}, findOptions)
	if err != nil {
		r.logger.Error("ImageRepository.FindByListing: Find failed", "listing_slug", listingSlug, "error", err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*rawImageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("ImageRepository.FindByListing: cursor decode failed", "listing_slug", listingSlug, "error", err.Error())
		return nil, err
	}

	images := make([]*domain.Image, 0, len(docs))
	for _, doc := range docs {
		images = append(images, toDomainImageMeta(doc))
	}
	return images, nil
}

func (r *ImageRepository) DeleteByListing(ctx context.Context, listingSlug string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"listing_slug": listingSlug})
	return err
}
