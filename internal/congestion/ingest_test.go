package congestion

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/places"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

type congestionWrite struct {
	snapshot     domain.CongestionSnapshot
	openingHours string
}

type fakeStoreSource struct {
	mu     sync.Mutex
	stores []domain.Store
	writes map[string]congestionWrite
}

func (f *fakeStoreSource) FindAll(context.Context) ([]domain.Store, error) {
	return f.stores, nil
}

func (f *fakeStoreSource) UpdateCongestion(_ context.Context, id string, snapshot domain.CongestionSnapshot, openingHours string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writes == nil {
		f.writes = make(map[string]congestionWrite)
	}
	f.writes[id] = congestionWrite{snapshot: snapshot, openingHours: openingHours}
	return nil
}

type fakePlacesClient struct {
	details map[string]*places.Details
	errs    map[string]error
}

func (f *fakePlacesClient) Details(_ context.Context, placeID string) (*places.Details, error) {
	if err, ok := f.errs[placeID]; ok {
		return nil, err
	}
	if details, ok := f.details[placeID]; ok {
		return details, nil
	}
	return &places.Details{}, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testStore(id, placeID string) domain.Store {
	store := domain.Store{ID: id, PlaceID: placeID}
	if placeID != "" {
		store.Location = &domain.Coordinate{Latitude: 35.0, Longitude: 139.0}
	}
	return store
}

func TestIngestor_Run_SkipsStoresWithoutPlace(t *testing.T) {
	source := &fakeStoreSource{stores: []domain.Store{
		testStore("no-place", ""),
		{ID: "no-location", PlaceID: "place-x"},
		testStore("tracked", "place-a"),
	}}
	client := &fakePlacesClient{details: map[string]*places.Details{
		"place-a": {Popularity: intPtr(45)},
	}}

	ingestor := NewIngestor(testLogger(), source, client, metrics.New(prometheus.NewRegistry()))
	results, err := ingestor.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, results, 1)
	assert.Equal(t, "tracked", results[0].StoreID)
	assert.NoError(t, results[0].Err)

	write, ok := source.writes["tracked"]
	require.True(t, ok)
	assert.Equal(t, 3, write.snapshot.Level)
	assert.True(t, write.snapshot.LiveData)
	assert.False(t, write.snapshot.LastUpdated.IsZero())
}

func TestIngestor_Run_FailureDoesNotAbortBatch(t *testing.T) {
	source := &fakeStoreSource{stores: []domain.Store{
		testStore("store-1", "place-1"),
		testStore("store-2", "place-2"),
		testStore("store-3", "place-3"),
	}}
	client := &fakePlacesClient{
		details: map[string]*places.Details{
			"place-1": {Popularity: intPtr(85), WeekdayText: []string{"月曜日: 10時00分～20時00分", "火曜日: 10時00分～20時00分"}},
			"place-3": {},
		},
		errs: map[string]error{
			"place-2": errors.New("upstream unavailable"),
		},
	}

	ingestor := NewIngestor(testLogger(), source, client, metrics.New(prometheus.NewRegistry()))
	results, err := ingestor.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 3)

	failures := 0
	for _, result := range results {
		if result.Err != nil {
			failures++
			assert.Equal(t, "store-2", result.StoreID)
		}
	}
	assert.Equal(t, 1, failures)

	// 失敗した店舗には書き込みが発生しない。
	_, wrote := source.writes["store-2"]
	assert.False(t, wrote)

	write1 := source.writes["store-1"]
	assert.Equal(t, 5, write1.snapshot.Level)
	assert.True(t, write1.snapshot.LiveData)
	assert.Equal(t, "月曜日: 10時00分～20時00分, 火曜日: 10時00分～20時00分", write1.openingHours)

	// 観測値なしの店舗は level 0 / liveData false で上書きされる。
	write3 := source.writes["store-3"]
	assert.Equal(t, 0, write3.snapshot.Level)
	assert.False(t, write3.snapshot.LiveData)
	assert.Empty(t, write3.openingHours)
}

func TestIngestor_Run_NoTargets(t *testing.T) {
	source := &fakeStoreSource{stores: []domain.Store{testStore("no-place", "")}}
	ingestor := NewIngestor(testLogger(), source, &fakePlacesClient{}, metrics.New(prometheus.NewRegistry()))

	results, err := ingestor.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, source.writes)
}
