package repository

import (
	"context"
	"errors"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConversationRepository implements ConversationRepository on a mongo collection
type MongoConversationRepository struct {
	collection *mongo.Collection
}

// NewMongoConversationRepository creates the repository and its TTL index on updatedAt
func NewMongoConversationRepository(ctx context.Context, db *mongo.Database, ttl time.Duration) (repository.ConversationRepository, error) {
	collection := db.Collection("conversations")

	ttlIndex := mongo.IndexModel{
		Keys:    bson.M{"updatedAt": 1},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := collection.Indexes().CreateOne(ctx, ttlIndex); err != nil {
		return nil, err
	}

	return &MongoConversationRepository{
		collection: collection,
	}, nil
}

// Get finds a conversation by id
func (r *MongoConversationRepository) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

// Save replaces the whole document
func (r *MongoConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": conversation.ID}, conversation, opts)
	return err
}

func (r *MongoConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoConversationRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}
