package alert

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers one formatted message to the outside world. It owns its
// transport, auth and timeout; the dispatcher only logs failures.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder persists a fired signal to the audit trail. Optional.
type Recorder interface {
	Record(ctx context.Context, sig Signal) error
}

// Dispatcher decouples spike detection from delivery latency: Enqueue never
// blocks the engine, a single worker drains the bounded queue. A full queue
// drops the signal with a warning; the engine still considers it sent.
type Dispatcher struct {
	queue    chan Signal
	notifier Notifier
	recorder Recorder // nil when the audit trail is disabled
	logger   *zap.Logger
}

func NewDispatcher(notifier Notifier, recorder Recorder, logger *zap.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		queue:    make(chan Signal, queueSize),
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

// Enqueue hands a signal to the delivery worker without blocking.
func (d *Dispatcher) Enqueue(sig Signal) {
	select {
	case d.queue <- sig:
	default:
		d.logger.Warn("notification queue full, dropping alert",
			zap.String("symbol", sig.Symbol))
	}
}

// Run consumes the queue until ctx is cancelled. Delivery and audit failures
// are logged and dropped, never retried: the exchange feeds must not stall
// behind a broken notification channel.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-d.queue:
			d.deliver(ctx, sig)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sig Signal) {
	if d.recorder != nil {
		recCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := d.recorder.Record(recCtx, sig); err != nil {
			d.logger.Warn("failed to record alert", zap.String("symbol", sig.Symbol), zap.Error(err))
		}
		cancel()
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := d.notifier.Notify(sendCtx, sig.Message()); err != nil {
		d.logger.Warn("failed to send alert notification",
			zap.String("symbol", sig.Symbol), zap.Error(err))
		return
	}
	d.logger.Info("alert notification sent", zap.String("symbol", sig.Symbol))
}
