package appwatch

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinaka-dev/congestion-map-services/api/internal/metrics"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/application"
	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

type fakeDetector struct {
	candidates []Candidate
	err        error
}

func (f *fakeDetector) Detect(context.Context) ([]Candidate, error) {
	return f.candidates, f.err
}

type fakeDiscoveries struct {
	inserted  []domain.AppDiscovery
	insertErr error
}

func (f *fakeDiscoveries) Insert(_ context.Context, discovery *domain.AppDiscovery) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *discovery)
	return nil
}

func (f *fakeDiscoveries) Find(context.Context, application.DiscoveryFilter) ([]domain.AppDiscovery, error) {
	return append([]domain.AppDiscovery{}, f.inserted...), nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

func newTestJob(detector Detector, discoveries application.DiscoveryRepository, notifier Notifier) *Job {
	logger := log.New(io.Discard, "", 0)
	return NewJob(logger, detector, discoveries, notifier, metrics.New(prometheus.NewRegistry()))
}

func TestJob_Run_RecordsUnprocessedDiscoveries(t *testing.T) {
	detector := &fakeDetector{candidates: []Candidate{
		{StoreID: "s1", Name: "公式サイト", Type: domain.AppTypeWeb, URL: "https://example.com"},
		{StoreID: "s2", Name: "LINE公式", Type: domain.AppTypeLine, URL: "https://line.me/b"},
	}}
	discoveries := &fakeDiscoveries{}
	notifier := &fakeNotifier{}

	count, err := newTestJob(detector, discoveries, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, discoveries.inserted, 2)
	for _, record := range discoveries.inserted {
		assert.False(t, record.Processed)
		assert.False(t, record.DiscoveredAt.IsZero())
	}

	require.Len(t, notifier.messages, 1)
	message := notifier.messages[0]
	assert.Contains(t, message, "新しいアプリが検出されました (2件)")
	assert.Contains(t, message, "- 公式サイト (web): s1")
	assert.Contains(t, message, "- LINE公式 (line): s2")
}

func TestJob_Run_NoCandidates(t *testing.T) {
	discoveries := &fakeDiscoveries{}
	notifier := &fakeNotifier{}

	count, err := newTestJob(&fakeDetector{}, discoveries, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, discoveries.inserted)
	assert.Empty(t, notifier.messages)
}

func TestJob_Run_DetectorError(t *testing.T) {
	detector := &fakeDetector{err: errors.New("crawl failed")}
	discoveries := &fakeDiscoveries{}
	notifier := &fakeNotifier{}

	_, err := newTestJob(detector, discoveries, notifier).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, discoveries.inserted)
	assert.Empty(t, notifier.messages)
}

func TestJob_Run_NotifyFailureDoesNotFailJob(t *testing.T) {
	detector := &fakeDetector{candidates: []Candidate{
		{StoreID: "s1", Name: "公式サイト", Type: domain.AppTypeWeb, URL: "https://example.com"},
	}}
	notifier := &fakeNotifier{err: errors.New("notify unavailable")}

	count, err := newTestJob(detector, &fakeDiscoveries{}, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJob_Run_InsertFailureContinues(t *testing.T) {
	detector := &fakeDetector{candidates: []Candidate{
		{StoreID: "s1", Name: "公式サイト", Type: domain.AppTypeWeb, URL: "https://example.com"},
	}}
	discoveries := &fakeDiscoveries{insertErr: errors.New("write failed")}
	notifier := &fakeNotifier{}

	count, err := newTestJob(detector, discoveries, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	// 保存に失敗しても通知は行われる。
	assert.Len(t, notifier.messages, 1)
}
