package application

import (
	"context"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// StoreRepository は店舗ドキュメントの読み取りと部分更新を提供するポート。
type StoreRepository interface {
	Find(ctx context.Context, filter StoreFilter) ([]domain.Store, error)
	FindByID(ctx context.Context, id string) (*domain.Store, error)
	UpdateDetails(ctx context.Context, id string, fields StoreFields) error
	ReplaceApps(ctx context.Context, id string, apps []domain.LinkedApp) error
}

// DiscoveryRepository はアプリ発見ログの永続化を提供するポート。
type DiscoveryRepository interface {
	Insert(ctx context.Context, discovery *domain.AppDiscovery) error
	Find(ctx context.Context, filter DiscoveryFilter) ([]domain.AppDiscovery, error)
}

// StoreFilter expresses search criteria for stores.
type StoreFilter struct {
	Type    string
	Keyword string
}

// DiscoveryFilter expresses search criteria for discovery records.
type DiscoveryFilter struct {
	StoreID   string
	Processed *bool
	Limit     int
}

// StoreFields は許可リストを通過した更新対象フィールドの集合。nil の項目は変更しない。
type StoreFields struct {
	Name         *string
	Address      *string
	Type         *string
	OpeningHours *string
}

// HasChanges は更新対象のフィールドが 1 つでも残っているか返す。
func (f StoreFields) HasChanges() bool {
	return f.Name != nil || f.Address != nil || f.Type != nil || f.OpeningHours != nil
}

// StoreQueryService は地図表示向けの店舗参照ユースケースを提供するリーダーモデル。
type StoreQueryService interface {
	List(ctx context.Context, filter StoreFilter) ([]domain.Store, error)
	Detail(ctx context.Context, id string) (*domain.Store, error)
}

// StoreCommandService は店舗情報の部分更新とアプリ登録を提供する。
type StoreCommandService interface {
	UpdateDetails(ctx context.Context, cmd UpdateStoreCommand) error
	RegisterApp(ctx context.Context, cmd RegisterAppCommand) ([]domain.LinkedApp, error)
}

// UpdateStoreCommand captures an allow-listed partial update.
type UpdateStoreCommand struct {
	StoreID string
	Fields  StoreFields
}

// RegisterAppCommand captures a candidate linked-app submission.
type RegisterAppCommand struct {
	StoreID string
	App     domain.LinkedApp
}
