package errlog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// errorLogCollection MongoDB 中的错误日志集合
const errorLogCollection = "error_logs"

type mongoAppender struct {
	collection *mongo.Collection
}

// NewMongoLog 创建基于 MongoDB 集合的错误日志
func NewMongoLog(db *mongo.Database) *Log {
	return newLog(&mongoAppender{collection: db.Collection(errorLogCollection)})
}

func (a *mongoAppender) append(ctx context.Context, entry Entry) error {
	if _, err := a.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert error log: %w", err)
	}
	return nil
}
