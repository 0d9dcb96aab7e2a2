package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"cafe-server/models"
	"cafe-server/utils/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewStore persists per-café reviews. Reviews are insert-only.
type ReviewStore interface {
	ListReviews(ctx context.Context, cafeID string) ([]models.Review, error)
	AddReview(ctx context.Context, review models.Review) error
	WatchReviews(ctx context.Context, cafeID string, onChange func(models.Review)) error
}

type ReviewService struct {
	store ReviewStore
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store}
}

// ValidateReview rejects malformed input locally, before any store write.
func ValidateReview(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return errors.NewAPIError("INVALID_RATING", "Rating must be between 1 and 5", http.StatusBadRequest)
	}
	if strings.TrimSpace(comment) == "" {
		return errors.NewAPIError("EMPTY_COMMENT", "Review comment cannot be empty", http.StatusBadRequest)
	}
	return nil
}

// Add stamps authorship and creation time and persists the review.
func (s *ReviewService) Add(ctx context.Context, cafeID string, author models.User, rating int, comment string) (models.Review, error) {
	if cafeID == "" {
		return models.Review{}, errors.ErrInvalidInput
	}
	if err := ValidateReview(rating, comment); err != nil {
		return models.Review{}, err
	}

	username := author.Name
	if username == "" {
		username = author.Email
	}
	review := models.Review{
		CafeID:    cafeID,
		UserID:    author.PublicID,
		Username:  username,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddReview(ctx, review); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// List returns a café's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, cafeID string) ([]models.Review, error) {
	if cafeID == "" {
		return nil, errors.ErrInvalidInput
	}
	return s.store.ListReviews(ctx, cafeID)
}

// ListVisible narrows a café's reviews to the requester's own and their
// friends' (the "friends" tab on the café screen).
func (s *ReviewService) ListVisible(ctx context.Context, cafeID string, requester models.User) ([]models.Review, error) {
	reviews, err := s.List(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	return VisibleReviews(reviews, requester.PublicID, requester.Friends), nil
}

// Watch subscribes to new reviews for one café until ctx is cancelled.
func (s *ReviewService) Watch(ctx context.Context, cafeID string, onChange func(models.Review)) error {
	if cafeID == "" {
		return errors.ErrInvalidInput
	}
	return s.store.WatchReviews(ctx, cafeID, onChange)
}

type MongoReviewStore struct {
	collection *mongo.Collection
}

func NewMongoReviewStore(db *mongo.Database) *MongoReviewStore {
	collection := db.Collection("reviews")

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "cafe_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := collection.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create index on reviews: %v", err)
	}

	return &MongoReviewStore{collection: collection}
}

func (s *MongoReviewStore) ListReviews(ctx context.Context, cafeID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"cafe_id": cafeID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to read reviews", errors.ErrUnavailable.Status)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to decode reviews", errors.ErrUnavailable.Status)
	}
	return reviews, nil
}

func (s *MongoReviewStore) AddReview(ctx context.Context, review models.Review) error {
	if _, err := s.collection.InsertOne(ctx, review); err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to save review", errors.ErrUnavailable.Status)
	}
	return nil
}

// WatchReviews pushes newly inserted reviews for one café until ctx is cancelled.
func (s *MongoReviewStore) WatchReviews(ctx context.Context, cafeID string, onChange func(models.Review)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":        "insert",
			"fullDocument.cafe_id": cafeID,
		}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline)
	if err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to watch reviews", errors.ErrUnavailable.Status)
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event struct {
				FullDocument models.Review `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("Failed to decode review change event for cafe %s: %v", cafeID, err)
				continue
			}
			onChange(event.FullDocument)
		}
	}()
	return nil
}
