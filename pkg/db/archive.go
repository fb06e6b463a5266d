package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"diynow/pkg/domain"
)

// archivedProject is the document stored per discovered project.
type archivedProject struct {
	domain.ProjectRecord `bson:",inline"`
	CrawledAt            time.Time `bson:"crawled_at"`
}

// MongoArchive keeps the history of every project the crawler emitted, one
// document per URL.
type MongoArchive struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewMongoArchive connects to MongoDB and verifies the connection.
func NewMongoArchive(ctx context.Context, uri, database, collection string) (*MongoArchive, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoArchive{
		mongoClient: mongoClient,
		collection:  mongoClient.Database(database).Collection(collection),
	}, nil
}

// Close closes the MongoDB connection
func (a *MongoArchive) Close(ctx context.Context) error {
	if a.mongoClient == nil {
		return nil
	}
	return a.mongoClient.Disconnect(ctx)
}

// SaveProjects upserts every record by URL and stamps it with the crawl time.
func (a *MongoArchive) SaveProjects(ctx context.Context, records []domain.ProjectRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"url": r.URL}).
			SetUpdate(bson.M{"$set": archivedProject{ProjectRecord: r, CrawledAt: now}}).
			SetUpsert(true))
	}

	if _, err := a.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("archive projects: %w", err)
	}
	return nil
}

// URLs returns the set of archived project URLs.
func (a *MongoArchive) URLs(ctx context.Context) (map[string]bool, error) {
	cursor, err := a.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"url": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query URLs: %w", err)
	}
	defer cursor.Close(ctx)

	urlSet := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			URL string `bson:"url"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue
		}
		if result.URL != "" {
			urlSet[result.URL] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return urlSet, nil
}
