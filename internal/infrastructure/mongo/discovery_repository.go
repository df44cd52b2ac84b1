package mongo

import (
	"context"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DiscoveryRepository はアプリ発見ログの Mongo 実装。
type DiscoveryRepository struct {
	collection *mongo.Collection
}

// NewDiscoveryRepository creates a new Mongo-backed discovery repository.
func NewDiscoveryRepository(db *mongo.Database, collectionName string) *DiscoveryRepository {
	return &DiscoveryRepository{collection: db.Collection(collectionName)}
}

// Insert は発見レコードを追記し、採番された識別子を書き戻す。
func (r *DiscoveryRepository) Insert(ctx context.Context, discovery *domain.AppDiscovery) error {
	doc := AppDiscoveryDocument{
		StoreID:      discovery.StoreID,
		AppName:      discovery.AppName,
		AppType:      discovery.AppType.String(),
		URL:          discovery.URL,
		DiscoveredAt: discovery.DiscoveredAt,
		Processed:    discovery.Processed,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if objectID, ok := result.InsertedID.(primitive.ObjectID); ok {
		discovery.ID = objectID.Hex()
	}
	return nil
}

// Find は発見レコードを新しい順に返す。
func (r *DiscoveryRepository) Find(ctx context.Context, filter application.DiscoveryFilter) ([]domain.AppDiscovery, error) {
	mongoFilter := bson.M{}
	if filter.StoreID != "" {
		mongoFilter["storeId"] = filter.StoreID
	}
	if filter.Processed != nil {
		mongoFilter["processed"] = *filter.Processed
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	opts := options.Find().SetSort(bson.D{{Key: "discoveredAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	discoveries := make([]domain.AppDiscovery, 0)
	for cursor.Next(ctx) {
		var doc AppDiscoveryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		discoveries = append(discoveries, domain.AppDiscovery{
			ID:           doc.ID.Hex(),
			StoreID:      doc.StoreID,
			AppName:      doc.AppName,
			AppType:      domain.AppType(doc.AppType),
			URL:          doc.URL,
			DiscoveredAt: doc.DiscoveredAt,
			Processed:    doc.Processed,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return discoveries, nil
}
