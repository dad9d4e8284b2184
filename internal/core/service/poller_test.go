package service

import (
	"testing"
	"time"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/pkg/currentcost"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	Snapshot  *domain.Snapshot
	FailLoad  bool
	FailSave  bool
	SaveCalls int
}

func (s *memStore) Load() (*domain.Snapshot, error) {
	if s.FailLoad {
		return nil, &domain.StoreError{Op: "load", Err: assert.AnError}
	}
	return s.Snapshot, nil
}

func (s *memStore) Save(snapshot domain.Snapshot) error {
	s.SaveCalls++
	if s.FailSave {
		return &domain.StoreError{Op: "save", Err: assert.AnError}
	}
	s.Snapshot = &snapshot
	return nil
}

func (s *memStore) Close() error {
	return nil
}

func testPoller(store *memStore, reader currentcost.CycleReader) *Poller {
	return &Poller{
		Reader:       reader,
		Store:        store,
		Tariff:       &TariffCalculator{Currency: "£", Rate1: 13.9, Rate1Threshold: 900, Rate2: 8.2},
		TickInterval: 60 * time.Second,
		Logger:       zap.NewNop(),
	}
}

func TestPollFreshSnapshotSkipsDeviceRead(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	stored := snapshotWith(now.Add(-10*time.Second), 0, domain.ChannelAccumulator{ChannelID: 1, Daily: 10})
	store := &memStore{Snapshot: stored}
	reader := &currentcost.TestCycleReader{}
	poller := testPoller(store, reader)

	result, err := poller.Poll(now)

	require.NoError(err)
	assert.True(t, result.Stale)
	assert.Equal(t, 0, reader.ReadCalls)
	assert.Equal(t, 0, store.SaveCalls)
	assert.Equal(t, *stored, result.Snapshot)
}

func TestPollMergesAndSaves(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	reader := &currentcost.TestCycleReader{}
	poller := testPoller(store, reader)

	result, err := poller.Poll(now)

	require.NoError(err)
	assert.False(t, result.Stale)
	assert.Equal(t, 1, reader.ReadCalls)
	require.NotNil(store.Snapshot)
	assert.Equal(t, *store.Snapshot, result.Snapshot)

	acc := result.Snapshot.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	assert.InDelta(t, 345.0/12, acc.Daily, 1e-9)
	assert.Len(t, result.Costs[0], 2)
	assert.Len(t, result.Costs[1], 1)
}

func TestPollDeviceFailureKeepsLastGoodSnapshot(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	stored := snapshotWith(now.Add(-5*time.Minute), 0, domain.ChannelAccumulator{ChannelID: 1, Daily: 10})
	store := &memStore{Snapshot: stored}
	reader := &currentcost.TestCycleReader{}
	reader.FailReads = true
	poller := testPoller(store, reader)

	result, err := poller.Poll(now)

	require.NoError(err)
	assert.NotEmpty(t, result.DeviceWarning)
	assert.Equal(t, *stored, result.Snapshot)
	assert.Equal(t, 0, store.SaveCalls)
}

func TestPollDeviceFailureOnFirstRunFails(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	reader := &currentcost.TestCycleReader{}
	reader.FailReads = true
	poller := testPoller(&memStore{}, reader)

	_, err := poller.Poll(now)

	var devErr *currentcost.DeviceError
	require.ErrorAs(t, err, &devErr)
}

func TestPollSaveFailureFailsPoll(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	store := &memStore{FailSave: true}
	poller := testPoller(store, &currentcost.TestCycleReader{})

	_, err := poller.Poll(now)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Nil(t, store.Snapshot)
}

func TestPollLoadFailureFailsPoll(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	store := &memStore{FailLoad: true}
	reader := &currentcost.TestCycleReader{}
	poller := testPoller(store, reader)

	_, err := poller.Poll(now)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, 0, reader.ReadCalls)
}
