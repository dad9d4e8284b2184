package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "currentcost2mqtt/internal/adapter/actor"
	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/internal/core/service"
	"currentcost2mqtt/internal/state"
	"currentcost2mqtt/internal/util"
	"currentcost2mqtt/pkg/currentcost"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.StateConfig.Path = t.TempDir() + "/state.json"
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	store, err := state.NewFileStore(cfg.StateConfig.Path, logger)
	require.NoError(t, err)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func(es *eventstream.EventStream) *adactor.MeterActor {
			poller := &service.Poller{
				Reader:       &currentcost.TestCycleReader{},
				Store:        store,
				Tariff:       &service.TariffCalculator{Currency: "£", Rate1: 13.9, Rate1Threshold: 900, Rate2: 8.2},
				TickInterval: time.Duration(cfg.MonitorConfig.TickIntervalSecs) * time.Second,
				Logger:       logger,
			}
			return adactor.NewMeterActor(&cfg, poller, es, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	// snapshot requests are routed to the meter child
	res, err = context.RequestFuture(pid, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	snapResp, ok := res.(domain.GetSnapshotResponse)
	assert.True(t, ok)
	require.False(t, snapResp.HasResponseError())
	assert.NotEmpty(t, snapResp.Result.Snapshot.Sensors)

	context.Stop(pid)

	as.Shutdown()
}
