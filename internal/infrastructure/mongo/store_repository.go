package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StoreRepository は店舗ドキュメントの読み取りと部分マージ更新の Mongo 実装。
type StoreRepository struct {
	collection *mongo.Collection
}

// NewStoreRepository creates a new Mongo-backed store repository.
func NewStoreRepository(db *mongo.Database, collectionName string) *StoreRepository {
	return &StoreRepository{collection: db.Collection(collectionName)}
}

// Find は条件に一致する店舗を列挙して返す。
func (r *StoreRepository) Find(ctx context.Context, filter application.StoreFilter) ([]domain.Store, error) {
	mongoFilter := bson.M{}
	if filter.Type != "" {
		mongoFilter["type"] = strings.TrimSpace(filter.Type)
	}
	if filter.Keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Keyword), Options: "i"}
		mongoFilter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"address": pattern},
		}
	}

	cursor, err := r.collection.Find(ctx, mongoFilter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stores := make([]domain.Store, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stores = append(stores, mapStoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return stores, nil
}

// FindAll は全店舗を返す。取り込みジョブの列挙用。
func (r *StoreRepository) FindAll(ctx context.Context) ([]domain.Store, error) {
	return r.Find(ctx, application.StoreFilter{})
}

// FindByID は識別子で単一店舗を返す。存在しない場合は mongo.ErrNoDocuments を返す。
func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	var doc StoreDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": strings.TrimSpace(id)}).Decode(&doc); err != nil {
		return nil, err
	}
	store := mapStoreDocument(doc)
	return &store, nil
}

// UpdateDetails は許可リスト適用済みのフィールドのみを $set でマージし、更新時刻を刻む。
// 対象ドキュメントが存在しない場合は mongo.ErrNoDocuments を返す。
func (r *StoreRepository) UpdateDetails(ctx context.Context, id string, fields application.StoreFields) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if fields.Name != nil {
		set["name"] = strings.TrimSpace(*fields.Name)
	}
	if fields.Address != nil {
		set["address"] = strings.TrimSpace(*fields.Address)
	}
	if fields.Type != nil {
		set["type"] = strings.TrimSpace(*fields.Type)
	}
	if fields.OpeningHours != nil {
		set["openingHours"] = strings.TrimSpace(*fields.OpeningHours)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReplaceApps はアプリ一覧全体を差し替え、更新時刻を刻む。他のフィールドには触れない。
func (r *StoreRepository) ReplaceApps(ctx context.Context, id string, apps []domain.LinkedApp) error {
	docs := make([]LinkedAppDocument, 0, len(apps))
	for _, app := range apps {
		docs = append(docs, LinkedAppDocument{
			Type: app.Type.String(),
			URL:  app.URL,
			Name: app.Name,
		})
	}

	set := bson.M{
		"officialApps": docs,
		"updatedAt":    time.Now().UTC(),
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateCongestion は混雑スナップショットをマージする。openingHours は報告があったときだけ更新する。
func (r *StoreRepository) UpdateCongestion(ctx context.Context, id string, snapshot domain.CongestionSnapshot, openingHours string) error {
	set := bson.M{
		"congestion": CongestionDocument{
			Level:       snapshot.Level,
			LiveData:    snapshot.LiveData,
			LastUpdated: snapshot.LastUpdated,
		},
		"updatedAt": time.Now().UTC(),
	}
	if strings.TrimSpace(openingHours) != "" {
		set["openingHours"] = strings.TrimSpace(openingHours)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountAll は店舗数を返す。疎通確認エンドポイント用。
func (r *StoreRepository) CountAll(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.D{})
}

func mapStoreDocument(doc StoreDocument) domain.Store {
	createdAt := time.Time{}
	if doc.CreatedAt != nil {
		createdAt = *doc.CreatedAt
	}
	updatedAt := time.Time{}
	if doc.UpdatedAt != nil {
		updatedAt = *doc.UpdatedAt
	}

	var location *domain.Coordinate
	if doc.Location != nil {
		location = &domain.Coordinate{
			Latitude:  doc.Location.Latitude,
			Longitude: doc.Location.Longitude,
		}
	}

	var congestion *domain.CongestionSnapshot
	if doc.Congestion != nil {
		snapshot := domain.NewCongestionSnapshot(doc.Congestion.Level, doc.Congestion.LiveData, doc.Congestion.LastUpdated)
		congestion = &snapshot
	}

	apps := make([]domain.LinkedApp, 0, len(doc.OfficialApps))
	for _, app := range doc.OfficialApps {
		apps = append(apps, domain.LinkedApp{
			Type: domain.AppType(app.Type),
			URL:  app.URL,
			Name: app.Name,
		})
	}

	return domain.Store{
		ID:           doc.ID,
		PlaceID:      doc.PlaceID,
		Location:     location,
		Name:         doc.Name,
		Address:      doc.Address,
		Type:         domain.StoreType(doc.Type),
		OpeningHours: doc.OpeningHours,
		OfficialApps: apps,
		Congestion:   congestion,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}
