package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/pkg/currentcost"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot() domain.Snapshot {
	night := 2.5
	return domain.Snapshot{
		Timestamp: time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
		Sensors: map[int]domain.SensorRecord{
			0: {
				Reading: currentcost.SensorReading{
					SensorID: 0,
					Channels: []currentcost.ChannelReading{
						{ChannelID: 1, Unit: "watts", Value: 345},
					},
				},
				Accumulators: []domain.ChannelAccumulator{
					{ChannelID: 1, Daily: 28.75, Monthly: 120, Yearly: 900, NightDaily: &night},
				},
			},
		},
	}
}

func newTestStore(t *testing.T) (*FileStore, string) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestLoadWithoutStateFileIsFirstRun(t *testing.T) {
	store, _ := newTestStore(t)

	snapshot, err := store.Load()

	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	require := require.New(t)
	store, path := newTestStore(t)
	saved := testSnapshot()

	require.NoError(store.Save(saved))

	loaded, err := store.Load()
	require.NoError(err)
	require.NotNil(loaded)
	assert.True(t, saved.Timestamp.Equal(loaded.Timestamp))
	acc := loaded.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	assert.Equal(t, 28.75, acc.Daily)
	require.NotNil(acc.NightDaily)
	assert.Equal(t, 2.5, *acc.NightDaily)
	assert.Nil(t, acc.NightMonthly)

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptStateFileFails(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.Load()

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "load", storeErr.Op)
}

func TestSecondInstanceOnSameStateFileIsRejected(t *testing.T) {
	store, path := newTestStore(t)

	_, err := NewFileStore(path, zap.NewNop())

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "lock", storeErr.Op)

	// releasing the first instance frees the lock
	require.NoError(t, store.Close())
	second, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	_ = second.Close()
}
