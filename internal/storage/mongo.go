package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// documentsCollection MongoDB 中存放文档的集合
const documentsCollection = "documents"

type mongoDocument struct {
	ID        string        `bson:"_id"`
	Data      bson.RawValue `bson:"data"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// MongoStore 基于 MongoDB 的文档存储
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore 创建 MongoDB 文档存储
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(documentsCollection),
	}
}

// Load 读取文档
func (s *MongoStore) Load(ctx context.Context, name string, v any) error {
	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get document %s: %w", name, err)
	}

	if err := doc.Data.Unmarshal(v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", name, err)
	}
	return nil
}

// Save 覆盖文档（upsert）
func (s *MongoStore) Save(ctx context.Context, name string, v any) error {
	update := bson.M{
		"_id":        name,
		"data":       v,
		"updated_at": time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": name}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", name, err)
	}
	return nil
}
