package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"cafe-server/models"
	"cafe-server/utils/errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListField names one of the three relationship lists on a profile document.
type ListField string

const (
	FieldFriends        ListField = "friends"
	FieldFriendRequests ListField = "friend_requests"
	FieldSentRequests   ListField = "sent_requests"
)

// ListOp is a single element-level add or remove on one user's relationship list.
// Element-level ops avoid the read-whole/write-whole lost-update race: two
// concurrent requests to the same user merge instead of clobbering each other.
type ListOp struct {
	UserID string
	Field  ListField
	Add    bool
	Value  string
}

func AddOp(userID string, field ListField, value string) ListOp {
	return ListOp{UserID: userID, Field: field, Add: true, Value: value}
}

func RemoveOp(userID string, field ListField, value string) ListOp {
	return ListOp{UserID: userID, Field: field, Value: value}
}

// ProfileStore is the document-store surface the friend logic runs against.
type ProfileStore interface {
	GetProfile(ctx context.Context, publicID string) (models.User, error)
	GetProfiles(ctx context.Context, publicIDs []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) ([]models.User, error)
	CreateProfile(ctx context.Context, user models.User) error
	// Apply commits all ops together where the store supports multi-document
	// transactions; otherwise they run sequentially in the given order.
	Apply(ctx context.Context, ops ...ListOp) error
	// Watch pushes the full profile document to onChange on every update until
	// ctx is cancelled.
	Watch(ctx context.Context, publicID string, onChange func(models.User)) error
}

const (
	profileCacheTTL   = 24 * time.Hour
	applyMaxAttempts  = 3
	applyRetryBackoff = 100 * time.Millisecond
)

type MongoProfileStore struct {
	collection  *mongo.Collection
	redisClient *redis.Client
}

func NewMongoProfileStore(db *mongo.Database, redisClient *redis.Client) *MongoProfileStore {
	collection := db.Collection("users")

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "public_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := collection.Indexes().CreateMany(context.Background(), indexModels); err != nil {
		log.Printf("Failed to create indexes on users: %v", err)
	}

	return &MongoProfileStore{collection: collection, redisClient: redisClient}
}

// GetProfile retrieves a profile from Redis or MongoDB
func (s *MongoProfileStore) GetProfile(ctx context.Context, publicID string) (models.User, error) {
	var user models.User

	userJSON, err := s.redisClient.Get(ctx, "user:"+publicID).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			log.Printf("Failed to unmarshal cached user %s: %v", publicID, err)
		} else {
			return user, nil
		}
	}

	err = s.collection.FindOne(ctx, bson.M{"public_id": publicID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, errors.ErrNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "STORE_ERROR", "Failed to read profile", errors.ErrUnavailable.Status)
	}

	s.cacheProfile(ctx, user)
	return user, nil
}

// GetProfiles resolves a batch of public IDs, preserving input order and
// skipping IDs with no backing document.
func (s *MongoProfileStore) GetProfiles(ctx context.Context, publicIDs []string) ([]models.User, error) {
	if len(publicIDs) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"public_id": bson.M{"$in": publicIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to read profiles", errors.ErrUnavailable.Status)
	}
	defer cursor.Close(ctx)

	var found []models.User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to decode profiles", errors.ErrUnavailable.Status)
	}

	byID := make(map[string]models.User, len(found))
	for _, u := range found {
		byID[u.PublicID] = u
	}
	users := make([]models.User, 0, len(found))
	for _, id := range publicIDs {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// FindByEmail is an exact-equality query; zero matches is a valid empty result.
func (s *MongoProfileStore) FindByEmail(ctx context.Context, email string) ([]models.User, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to search profiles", errors.ErrUnavailable.Status)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to decode profiles", errors.ErrUnavailable.Status)
	}
	return users, nil
}

func (s *MongoProfileStore) CreateProfile(ctx context.Context, user models.User) error {
	_, err := s.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return errors.ErrConflict
	}
	if err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to create profile", errors.ErrUnavailable.Status)
	}
	s.cacheProfile(ctx, user)
	return nil
}

type profileUpdate struct {
	userID string
	update bson.M
}

// Apply groups the ops into one update document per user and commits them in a
// multi-document transaction. Deployments without replica sets cannot open
// sessions, so the write degrades to the sequential path with bounded retries,
// keeping the caller's order (recipient side first by convention).
func (s *MongoProfileStore) Apply(ctx context.Context, ops ...ListOp) error {
	if len(ops) == 0 {
		return nil
	}
	updates := buildProfileUpdates(ops)

	err := s.applyTransactional(ctx, updates)
	if err == errTransactionsUnsupported {
		log.Printf("Store has no transaction support, applying %d profile updates sequentially", len(updates))
		err = s.applySequential(ctx, updates)
	}
	if err != nil {
		return err
	}

	for _, u := range updates {
		s.redisClient.Del(ctx, "user:"+u.userID)
	}
	return nil
}

func buildProfileUpdates(ops []ListOp) []profileUpdate {
	var order []string
	adds := map[string]bson.M{}
	pulls := map[string]bson.M{}
	for _, op := range ops {
		if _, seen := adds[op.UserID]; !seen {
			order = append(order, op.UserID)
			adds[op.UserID] = bson.M{}
			pulls[op.UserID] = bson.M{}
		}
		if op.Add {
			adds[op.UserID][string(op.Field)] = op.Value
		} else {
			pulls[op.UserID][string(op.Field)] = op.Value
		}
	}

	updates := make([]profileUpdate, 0, len(order))
	for _, userID := range order {
		update := bson.M{}
		if len(adds[userID]) > 0 {
			update["$addToSet"] = adds[userID]
		}
		if len(pulls[userID]) > 0 {
			update["$pull"] = pulls[userID]
		}
		updates = append(updates, profileUpdate{userID: userID, update: update})
	}
	return updates
}

// errTransactionsUnsupported marks a deployment that cannot run multi-document
// transactions (standalone server, no replica set). Apply degrades to the
// sequential path when it sees this.
var errTransactionsUnsupported = fmt.Errorf("store does not support transactions")

func (s *MongoProfileStore) applyTransactional(ctx context.Context, updates []profileUpdate) error {
	sess, err := s.collection.Database().Client().StartSession()
	if err != nil {
		// No session support means no transactions either.
		return errTransactionsUnsupported
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, u := range updates {
			res, err := s.collection.UpdateOne(sc, bson.M{"public_id": u.userID}, u.update)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, errors.ErrNotFound
			}
		}
		return nil, nil
	})
	// The unsupported check must run on the raw server error: wrapping first
	// would bury the server message in APIError.Details where the match can
	// never fire, and the fallback would be unreachable.
	if isTransactionUnsupported(err) {
		return errTransactionsUnsupported
	}
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}
	if err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to update profiles", errors.ErrUnavailable.Status)
	}
	return nil
}

func (s *MongoProfileStore) applySequential(ctx context.Context, updates []profileUpdate) error {
	for _, u := range updates {
		var err error
		for attempt := 1; attempt <= applyMaxAttempts; attempt++ {
			var res *mongo.UpdateResult
			res, err = s.collection.UpdateOne(ctx, bson.M{"public_id": u.userID}, u.update)
			if err == nil {
				if res.MatchedCount == 0 {
					return errors.ErrNotFound
				}
				break
			}
			log.Printf("Profile update for %s failed (attempt %d): %v", u.userID, attempt, err)
			time.Sleep(applyRetryBackoff)
		}
		if err != nil {
			// A half-applied pair leaves the graph asymmetric; surface as
			// retryable so the client asks the user to try again.
			return errors.Wrap(err, "STORE_ERROR", "Failed to update profile", errors.ErrUnavailable.Status)
		}
	}
	return nil
}

func isTransactionUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction numbers") ||
		strings.Contains(msg, "transactions are not supported")
}

// Watch tails a change stream scoped to one profile document and pushes each
// updated document to onChange until ctx is cancelled.
func (s *MongoProfileStore) Watch(ctx context.Context, publicID string, onChange func(models.User)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.public_id": publicID}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to watch profile", errors.ErrUnavailable.Status)
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event struct {
				FullDocument models.User `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("Failed to decode profile change event for %s: %v", publicID, err)
				continue
			}
			s.redisClient.Del(ctx, "user:"+publicID)
			onChange(event.FullDocument)
		}
	}()
	return nil
}

func (s *MongoProfileStore) cacheProfile(ctx context.Context, user models.User) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		log.Printf("Failed to marshal user %s for cache: %v", user.PublicID, err)
		return
	}
	s.redisClient.Set(ctx, "user:"+user.PublicID, userJSON, profileCacheTTL)
}
