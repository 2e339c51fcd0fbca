package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

// Config holds MongoDB connection settings
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns the defaults used by the gateway's user collection
func DefaultConfig() Config {
	return Config{
		URI:        "mongodb://127.0.0.1:27017/web3",
		Database:   "web3",
		Collection: "users",
	}
}

// userDocument is the persisted shape of a user record
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Password  string             `bson:"password,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDocument) toRecord() *model.UserRecord {
	return &model.UserRecord{
		ID:        model.UserID(d.ID.Hex()),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
	}
}

// Storage is a MongoDB-backed user store
type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping
func Connect(ctx context.Context, cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Storage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// NewWithCollection wraps an existing collection (for testing)
func NewWithCollection(collection *mongo.Collection) *Storage {
	return &Storage{collection: collection}
}

// Close disconnects the client if this store owns it
func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure Storage implements the interface
var _ storage.UserStore = (*Storage)(nil)

func (s *Storage) SaveUser(ctx context.Context, user *model.UserRecord) error {
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return err
	}

	user.ID = model.UserID(doc.ID.Hex())
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.UserRecord, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, model.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid}, nil)
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	// ObjectIDs are time-ordered, so ascending _id is insertion order
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.findOne(ctx, bson.M{"email": email}, opts)
}

func (s *Storage) CountUsersByEmail(ctx context.Context, email string) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*model.UserRecord, error) {
	var doc userDocument

	var err error
	if opts != nil {
		err = s.collection.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = s.collection.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}
