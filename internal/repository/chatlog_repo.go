package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"citron/internal/model"
)

// ChatLogRepo 对话日志仓库
type ChatLogRepo struct {
	collection *mongo.Collection
}

// NewChatLogRepo 创建对话日志仓库
func NewChatLogRepo(db *mongo.Database) *ChatLogRepo {
	return &ChatLogRepo{
		collection: db.Collection("chat_logs"),
	}
}

// Create 写入一条对话记录
func (r *ChatLogRepo) Create(ctx context.Context, entry *model.ChatLog) error {
	entry.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}
	return nil
}

// ListRecent 按时间倒序查询最近的对话记录
// provider 为空时不过滤
func (r *ChatLogRepo) ListRecent(ctx context.Context, provider string, limit int64) ([]*model.ChatLog, error) {
	filter := bson.M{}
	if provider != "" {
		filter["provider"] = provider
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*model.ChatLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
