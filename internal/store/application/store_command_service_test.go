package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

type fakeStoreRepository struct {
	stores         map[string]domain.Store
	updatedFields  map[string]StoreFields
	replacedApps   map[string][]domain.LinkedApp
	updateErr      error
	replaceAppsErr error
}

func newFakeStoreRepository(stores ...domain.Store) *fakeStoreRepository {
	repo := &fakeStoreRepository{
		stores:        make(map[string]domain.Store),
		updatedFields: make(map[string]StoreFields),
		replacedApps:  make(map[string][]domain.LinkedApp),
	}
	for _, store := range stores {
		repo.stores[store.ID] = store
	}
	return repo
}

func (f *fakeStoreRepository) Find(context.Context, StoreFilter) ([]domain.Store, error) {
	result := make([]domain.Store, 0, len(f.stores))
	for _, store := range f.stores {
		result = append(result, store)
	}
	return result, nil
}

func (f *fakeStoreRepository) FindByID(_ context.Context, id string) (*domain.Store, error) {
	store, ok := f.stores[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &store, nil
}

func (f *fakeStoreRepository) UpdateDetails(_ context.Context, id string, fields StoreFields) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.stores[id]; !ok {
		return mongo.ErrNoDocuments
	}
	f.updatedFields[id] = fields
	return nil
}

func (f *fakeStoreRepository) ReplaceApps(_ context.Context, id string, apps []domain.LinkedApp) error {
	if f.replaceAppsErr != nil {
		return f.replaceAppsErr
	}
	if _, ok := f.stores[id]; !ok {
		return mongo.ErrNoDocuments
	}
	f.replacedApps[id] = apps
	return nil
}

type fakeDiscoveryRepository struct {
	inserted  []domain.AppDiscovery
	insertErr error
}

func (f *fakeDiscoveryRepository) Insert(_ context.Context, discovery *domain.AppDiscovery) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *discovery)
	return nil
}

func (f *fakeDiscoveryRepository) Find(context.Context, DiscoveryFilter) ([]domain.AppDiscovery, error) {
	return append([]domain.AppDiscovery{}, f.inserted...), nil
}

func strPtr(v string) *string {
	return &v
}

func TestUpdateDetails_RejectsEmptyFieldSet(t *testing.T) {
	stores := newFakeStoreRepository(domain.Store{ID: "s1"})
	service := NewStoreCommandService(stores, &fakeDiscoveryRepository{})

	err := service.UpdateDetails(context.Background(), UpdateStoreCommand{StoreID: "s1"})
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Empty(t, stores.updatedFields)
}

func TestUpdateDetails_MergesAllowedFields(t *testing.T) {
	stores := newFakeStoreRepository(domain.Store{ID: "s1", Name: "旧店名"})
	service := NewStoreCommandService(stores, &fakeDiscoveryRepository{})

	cmd := UpdateStoreCommand{
		StoreID: "s1",
		Fields: StoreFields{
			Name:         strPtr("新店名"),
			OpeningHours: strPtr("月曜日: 10時00分～20時00分"),
		},
	}
	require.NoError(t, service.UpdateDetails(context.Background(), cmd))

	fields, ok := stores.updatedFields["s1"]
	require.True(t, ok)
	assert.Equal(t, "新店名", *fields.Name)
	assert.Nil(t, fields.Address)
	assert.Nil(t, fields.Type)
	assert.Equal(t, "月曜日: 10時00分～20時00分", *fields.OpeningHours)
}

func TestRegisterApp_AppendsAndRecordsDiscovery(t *testing.T) {
	stores := newFakeStoreRepository(domain.Store{
		ID: "s1",
		OfficialApps: []domain.LinkedApp{
			{Type: domain.AppTypeLine, URL: "https://line.me/a", Name: "LINE公式"},
		},
	})
	discoveries := &fakeDiscoveryRepository{}
	service := NewStoreCommandService(stores, discoveries)

	cmd := RegisterAppCommand{
		StoreID: "s1",
		App:     domain.LinkedApp{Type: domain.AppTypeWeb, URL: "https://example.com", Name: "公式サイト"},
	}
	merged, err := service.RegisterApp(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, domain.AppTypeLine, merged[0].Type)
	assert.Equal(t, domain.AppTypeWeb, merged[1].Type)

	assert.Equal(t, merged, stores.replacedApps["s1"])

	require.Len(t, discoveries.inserted, 1)
	record := discoveries.inserted[0]
	assert.Equal(t, "s1", record.StoreID)
	assert.Equal(t, "公式サイト", record.AppName)
	assert.Equal(t, domain.AppTypeWeb, record.AppType)
	assert.True(t, record.Processed)
	assert.False(t, record.DiscoveredAt.IsZero())
}

func TestRegisterApp_ReplacesExistingType(t *testing.T) {
	stores := newFakeStoreRepository(domain.Store{
		ID: "s1",
		OfficialApps: []domain.LinkedApp{
			{Type: domain.AppTypeLine, URL: "https://line.me/a", Name: "LINE公式"},
			{Type: domain.AppTypeWeb, URL: "https://old.example.com", Name: "旧サイト"},
		},
	})
	discoveries := &fakeDiscoveryRepository{}
	service := NewStoreCommandService(stores, discoveries)

	cmd := RegisterAppCommand{
		StoreID: "s1",
		App:     domain.LinkedApp{Type: domain.AppTypeWeb, URL: "https://new.example.com", Name: "新サイト"},
	}
	merged, err := service.RegisterApp(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "https://new.example.com", merged[1].URL)

	// 差し替えでも監査レコードは必ず追記される。
	assert.Len(t, discoveries.inserted, 1)
}

func TestRegisterApp_StoreNotFound(t *testing.T) {
	stores := newFakeStoreRepository()
	discoveries := &fakeDiscoveryRepository{}
	service := NewStoreCommandService(stores, discoveries)

	cmd := RegisterAppCommand{
		StoreID: "missing",
		App:     domain.LinkedApp{Type: domain.AppTypeWeb, URL: "https://example.com", Name: "公式サイト"},
	}
	_, err := service.RegisterApp(context.Background(), cmd)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.Empty(t, stores.replacedApps)
	assert.Empty(t, discoveries.inserted)
}
