package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes 创建集合索引（幂等）
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// chat_logs: 按时间倒序查询、按 provider 过滤
	chatLogs := db.Collection("chat_logs")
	_, err := chatLogs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index(),
		},
	})

	return err
}
