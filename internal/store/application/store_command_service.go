package application

import (
	"context"
	"errors"
	"time"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// ErrNoChanges は許可リスト適用後に更新対象フィールドが残らなかったことを示す。
var ErrNoChanges = errors.New("更新できる項目がありません")

// storeCommandService implements StoreCommandService.
type storeCommandService struct {
	stores      StoreRepository
	discoveries DiscoveryRepository
}

// NewStoreCommandService creates a new store command service.
func NewStoreCommandService(stores StoreRepository, discoveries DiscoveryRepository) StoreCommandService {
	return &storeCommandService{stores: stores, discoveries: discoveries}
}

// UpdateDetails は許可リストを通過したフィールドのみを店舗ドキュメントへマージする。
// 混雑情報とアプリ一覧はこの経路では変更されない。
func (s *storeCommandService) UpdateDetails(ctx context.Context, cmd UpdateStoreCommand) error {
	if !cmd.Fields.HasChanges() {
		return ErrNoChanges
	}
	return s.stores.UpdateDetails(ctx, cmd.StoreID, cmd.Fields)
}

// RegisterApp は店舗のアプリ一覧へ候補をマージし、処理済みの発見レコードを監査ログへ残す。
// 同一種別の既存エントリは位置を保ったまま差し替え、なければ末尾へ追加する。
func (s *storeCommandService) RegisterApp(ctx context.Context, cmd RegisterAppCommand) ([]domain.LinkedApp, error) {
	store, err := s.stores.FindByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}

	merged := domain.MergeApp(store.OfficialApps, cmd.App)
	if err := s.stores.ReplaceApps(ctx, store.ID, merged); err != nil {
		return nil, err
	}

	discovery := &domain.AppDiscovery{
		StoreID:      store.ID,
		AppName:      cmd.App.Name,
		AppType:      cmd.App.Type,
		URL:          cmd.App.URL,
		DiscoveredAt: time.Now().UTC(),
		Processed:    true,
	}
	if err := s.discoveries.Insert(ctx, discovery); err != nil {
		return nil, err
	}

	return merged, nil
}
