package service

import (
	"time"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/internal/core/port"
	"currentcost2mqtt/pkg/currentcost"

	"go.uber.org/zap"
)

// Poller sequences one poll-compute-persist cycle: staleness check,
// device read, accumulator merge, cost pricing, save.
type Poller struct {
	Reader       currentcost.CycleReader
	Store        port.SnapshotStore
	Tariff       *TariffCalculator
	TickInterval time.Duration
	Logger       *zap.Logger
}

// Poll returns the merged snapshot plus derived costs. A device read
// failure is recovered locally: the last good snapshot is returned
// untouched with DeviceWarning set. A store failure fails the poll and
// leaves the persisted state unchanged.
func (p *Poller) Poll(now time.Time) (*domain.PollResult, error) {
	prev, err := p.Store.Load()
	if err != nil {
		return nil, err
	}

	if prev != nil && now.Before(prev.Timestamp.Add(p.TickInterval)) {
		p.Logger.Debug("stored snapshot still fresh, skipping device read",
			zap.Time("stored", prev.Timestamp))
		return p.result(*prev, true, nil), nil
	}

	readings, err := p.Reader.ReadCycle()
	if err != nil {
		if prev == nil {
			return nil, err
		}
		p.Logger.Warn("device read failed, keeping last good snapshot", zap.Error(err))
		return p.result(*prev, false, err), nil
	}

	merged := Merge(prev, readings, now, p.Tariff.Band(now))

	if err := p.Store.Save(merged); err != nil {
		return nil, err
	}
	p.Logger.Debug("poll complete", zap.Int("sensors", len(merged.Sensors)))
	return p.result(merged, false, nil), nil
}

func (p *Poller) result(snapshot domain.Snapshot, stale bool, deviceErr error) *domain.PollResult {
	result := &domain.PollResult{
		Snapshot: snapshot,
		Costs:    make(map[int][]domain.ChannelCost, len(snapshot.Sensors)),
		Stale:    stale,
	}
	if deviceErr != nil {
		result.DeviceWarning = deviceErr.Error()
	}
	for sensorID, record := range snapshot.Sensors {
		costs := make([]domain.ChannelCost, 0, len(record.Accumulators))
		for _, acc := range record.Accumulators {
			costs = append(costs, p.Tariff.MonthlyCost(acc))
		}
		result.Costs[sensorID] = costs
	}
	return result
}
