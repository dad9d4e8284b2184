package actor

import (
	"fmt"
	"time"

	"currentcost2mqtt/internal/config"
	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/internal/core/events"
	"currentcost2mqtt/internal/core/service"
	"currentcost2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// MeterActor owns the serial monitor. Polls run as background tasks so
// the actor stays responsive; requests arriving mid-poll are stashed
// until the poll settles.
type MeterActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	poller      *service.Poller
	config      *config.Config
	eventStream *eventstream.EventStream
	lastResult  *domain.PollResult

	logger *zap.Logger
}

type meterTick struct {
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewMeterActor(config *config.Config, poller *service.Poller, eventStream *eventstream.EventStream, logger *zap.Logger) *MeterActor {
	act := &MeterActor{
		config:      config,
		poller:      poller,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger("meter", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meter@starting started")
		if err := state.poller.Reader.Open(); err != nil {
			panic(err)
		}
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.behavior.Become(state.DefaultReceive)
		// first poll right away, the tick cadence starts after it
		ctx.Send(ctx.Self(), meterTick{})
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.poller.Reader.Close()
	default:
		state.logger.Debug("meter@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER,
			Healthy: true,
			State:   "idle",
		})
	case meterTick:
		state.logger.Debug("meter@default tick")
		state.startPollTask(ctx, nil)
		state.scheduler.RequestOnce(state.poller.TickInterval, ctx.Self(), meterTick{})
		state.behavior.BecomeStacked(state.WaitingPoll)
	case domain.PollRequest:
		state.logger.Debug("meter@default: PollRequest")
		state.startPollTask(ctx, actorutil.ForRequest(msg).ReplyTo(ctx))
		state.behavior.BecomeStacked(state.WaitingPoll)
	case domain.GetSnapshotRequest:
		state.logger.Debug("meter@default: GetSnapshotRequest")
		actorutil.ForRequest(msg).Respond(ctx, state.snapshotResponse())
	case *actor.Stopping:
		state.poller.Reader.Close()
		state.poller.Store.Close()
	default:
		state.logger.Debug("meter@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MeterActor) WaitingPoll(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("meter@waitingPoll backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.PollResponse); ok {
			state.handlePollResponse(resp)
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.GetSnapshotRequest:
		// safe to answer mid-poll, serves the last settled result
		actorutil.ForRequest(msg).Respond(ctx, state.snapshotResponse())
	case *actor.Stopping:
		state.poller.Reader.Close()
		state.poller.Store.Close()
	default:
		state.logger.Debug("meter@waitingPoll stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterActor) startPollTask(ctx actor.Context, replyTo *actor.PID) {
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.poll),
		mapTaskResult[domain.PollResponse](replyTo)).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: domain.PollResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			},
			replyTo: replyTo,
		}
	}).WithTimeout(state.poller.TickInterval).PipeTo(ctx.Self())
}

func (state *MeterActor) handlePollResponse(resp domain.PollResponse) {
	if resp.HasResponseError() {
		state.logger.Error("meter poll failed", zap.Error(resp.GetResponseError()))
		return
	}
	result := resp.Result
	state.lastResult = result
	if result.DeviceWarning != "" {
		state.logger.Warn("meter poll degraded", zap.String("warning", result.DeviceWarning))
	}
	for _, ev := range events.PollResultToUpdateEvents(result) {
		state.eventStream.Publish(ev)
	}
}

func (state *MeterActor) snapshotResponse() domain.GetSnapshotResponse {
	if state.lastResult == nil {
		return domain.GetSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: fmt.Errorf("no poll completed yet"),
			},
		}
	}
	return domain.GetSnapshotResponse{Result: state.lastResult}
}

func (a *MeterActor) poll() (*domain.PollResponse, error) {
	result, err := a.poller.Poll(time.Now())
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.PollResponse{Result: result}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
