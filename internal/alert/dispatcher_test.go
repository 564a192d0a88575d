package alert

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingNotifier struct {
	calls atomic.Int64
}

func (n *failingNotifier) Notify(context.Context, string) error {
	n.calls.Add(1)
	return errors.New("telegram unreachable")
}

type captureRecorder struct {
	mu      sync.Mutex
	signals []Signal
	err     error
}

func (r *captureRecorder) Record(_ context.Context, sig Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	return r.err
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(&captureNotifier{}, nil, zap.NewNop(), 1)

	// Worker not running: second enqueue must drop, not block.
	done := make(chan struct{})
	go func() {
		d.Enqueue(Signal{Symbol: "BTC"})
		d.Enqueue(Signal{Symbol: "ETH"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Len(t, d.queue, 1)
}

func TestRunDeliversRecordThenNotify(t *testing.T) {
	notifier := &captureNotifier{}
	recorder := &captureRecorder{}
	d := NewDispatcher(notifier, recorder, zap.NewNop(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	sig := Signal{Symbol: "BTC", Exchange: "Binance", Direction: Bullish, Time: time.Now()}
	d.Enqueue(sig)

	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.signals, 1)
	assert.Equal(t, "BTC", recorder.signals[0].Symbol)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, sig.Message(), notifier.messages[0])
}

func TestRunSurvivesNotifierFailure(t *testing.T) {
	notifier := &failingNotifier{}
	d := NewDispatcher(notifier, nil, zap.NewNop(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Signal{Symbol: "BTC"})
	d.Enqueue(Signal{Symbol: "ETH"})

	assert.Eventually(t, func() bool { return notifier.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunSurvivesRecorderFailure(t *testing.T) {
	notifier := &captureNotifier{}
	recorder := &captureRecorder{err: errors.New("db down")}
	d := NewDispatcher(notifier, recorder, zap.NewNop(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Signal{Symbol: "BTC"})

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLedgerSeenAfterAdd(t *testing.T) {
	l := NewLedger()
	assert.False(t, l.Seen("BTC_123"))
	l.Add("BTC_123")
	assert.True(t, l.Seen("BTC_123"))
	assert.False(t, l.Seen("BTC_124"))
	assert.Equal(t, 1, l.Size())
}

func TestSignalMessageFormat(t *testing.T) {
	sig := Signal{
		Symbol:       "SOL",
		Exchange:     "Binance",
		VolumeRatio:  12.3,
		Delta:        -450.5,
		DeltaPercent: -62.1,
		Direction:    Bearish,
		Time:         time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
	}
	msg := sig.Message()
	assert.Contains(t, msg, "<b>BEARISH ALERT - SOL</b>")
	assert.Contains(t, msg, "Exchange: <b>Binance</b>")
	assert.Contains(t, msg, "<b>12.3x</b>")
	assert.Contains(t, msg, "<b>-450.5</b> (-62.1%)")
	assert.Contains(t, msg, "🔴 DOWN")
	assert.Contains(t, msg, "14:30:00")
}
