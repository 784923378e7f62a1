package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paranote/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoBackend stores all scopes in one comments collection plus a bans
// collection. Likes use a single conditional update, so the dedup check
// and the increment are atomic even across replicas.
type MongoBackend struct {
	client   *mongo.Client
	comments *mongo.Collection
	bans     *mongo.Collection
}

// NewMongoBackend connects, verifies the server is reachable and ensures
// the collection indexes.
func NewMongoBackend(ctx context.Context, uri, database string) (*MongoBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	m := &MongoBackend{
		client:   client,
		comments: db.Collection("comments"),
		bans:     db.Collection("bans"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MongoBackend) ensureIndexes(ctx context.Context) error {
	_, err := m.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "siteId", Value: 1}, {Key: "workId", Value: 1}, {Key: "chapterId", Value: 1}}},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("ensure comment indexes: %w", err)
	}
	_, err = m.bans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "siteId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure ban index: %w", err)
	}
	return nil
}

func scopeFilter(scope Scope) bson.M {
	return bson.M{
		"siteId":    scope.SiteID,
		"workId":    scope.WorkID,
		"chapterId": scope.ChapterID,
	}
}

func (m *MongoBackend) ListComments(ctx context.Context, scope Scope) (map[string][]*models.Comment, error) {
	cursor, err := m.comments.Find(ctx, scopeFilter(scope))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	var all []*models.Comment
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return BuildThreads(all), nil
}

func (m *MongoBackend) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	stampNew(c)
	if _, err := m.comments.InsertOne(ctx, c); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (m *MongoBackend) LikeComment(ctx context.Context, scope Scope, commentID, userID string) (*models.Comment, error) {
	filter := scopeFilter(scope)
	filter["id"] = commentID
	filter["likedBy"] = bson.M{"$ne": userID}

	update := bson.M{
		"$inc":      bson.M{"likes": 1},
		"$addToSet": bson.M{"likedBy": userID},
	}

	var updated models.Comment
	err := m.comments.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("like comment: %w", err)
	}
	return &updated, nil
}

func (m *MongoBackend) DeleteComment(ctx context.Context, scope Scope, commentID string) (bool, error) {
	filter := scopeFilter(scope)
	filter["id"] = commentID
	res, err := m.comments.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoBackend) ExportAll(ctx context.Context) ([]*models.Comment, error) {
	cursor, err := m.comments.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("export comments: %w", err)
	}
	all := []*models.Comment{}
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return all, nil
}

func (m *MongoBackend) ImportAll(ctx context.Context, records []*models.Comment) (int, error) {
	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		rec, ok := normalizeImport(rec)
		if !ok {
			continue
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": rec.ID}).
			SetReplacement(rec).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return 0, nil
	}
	if _, err := m.comments.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, fmt.Errorf("bulk import: %w", err)
	}
	return len(writes), nil
}

func (m *MongoBackend) BanUser(ctx context.Context, rec models.BanRecord) error {
	if rec.BannedAt.IsZero() {
		rec.BannedAt = time.Now().UTC()
	}
	filter := bson.M{"siteId": rec.SiteID, "userId": rec.UserID}
	update := bson.M{"$set": rec}
	if _, err := m.bans.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert ban: %w", err)
	}
	return nil
}

func (m *MongoBackend) UnbanUser(ctx context.Context, siteID, userID string) (bool, error) {
	res, err := m.bans.DeleteOne(ctx, bson.M{"siteId": siteID, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("delete ban: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoBackend) IsUserBanned(ctx context.Context, siteID, userID string) (bool, error) {
	count, err := m.bans.CountDocuments(ctx,
		bson.M{"siteId": siteID, "userId": userID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return count > 0, nil
}

func (m *MongoBackend) ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error) {
	cursor, err := m.bans.Find(ctx, bson.M{"siteId": siteID},
		options.Find().SetSort(bson.D{{Key: "bannedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	out := []*models.BanRecord{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bans: %w", err)
	}
	return out, nil
}

func (m *MongoBackend) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
