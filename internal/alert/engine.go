package alert

import (
	"fmt"
	"time"

	"spikewatch/config"
	"spikewatch/internal/market"

	"go.uber.org/zap"
)

// mandatoryExchange is the display name of the always-on venue; spike
// detection only ever evaluates its state.
const mandatoryExchange = "Binance"

// Engine evaluates the mandatory venue's state after every mutation and
// decides whether a spike alert fires. Evaluate runs inside the store's
// per-symbol lock, so it never observes a torn update and its own writes
// (AlertFired) are ordered with the feed's.
type Engine struct {
	cfg        config.AlertConfig
	ledger     *Ledger
	dispatcher *Dispatcher
	logger     *zap.Logger

	now func() time.Time // swapped out in tests
}

func NewEngine(cfg config.AlertConfig, ledger *Ledger, dispatcher *Dispatcher, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Evaluate checks the spike conditions against one symbol's mandatory-venue
// state. The caller must hold the symbol lock. Conditions short-circuit in
// cheapest-first order; a fire enqueues the notification, arms AlertFired and
// records the (symbol, candle) pair in the ledger.
func (e *Engine) Evaluate(symbol string, st *market.ExchangeState) {
	now := e.now()

	// Warm-up: no alerts until the history window had a chance to fill with
	// representative candles.
	if st.MonitorStart.IsZero() || now.Sub(st.MonitorStart) < time.Duration(e.cfg.WarmupSeconds)*time.Second {
		return
	}

	if len(st.History) < e.cfg.HistoryWindow {
		return
	}

	ratio := 0.0
	if st.AvgVolume > 0 {
		ratio = st.CurrentVolume / st.AvgVolume
	}
	if ratio <= e.cfg.VolumeRatio {
		return
	}

	bullish := st.CandleClose > st.CandleOpen
	bearish := st.CandleClose < st.CandleOpen
	if !bullish && !bearish {
		return // flat candle, no direction to confirm
	}

	deltaPercent := 0.0
	if total := st.BuyVolume + st.SellVolume; total > 0 {
		deltaPercent = st.Delta / total * 100
	}

	var direction Direction
	switch {
	case bullish && deltaPercent >= e.cfg.DeltaPercent:
		direction = Bullish
	case bearish && deltaPercent <= -e.cfg.DeltaPercent:
		direction = Bearish
	default:
		return
	}

	if st.AlertFired {
		return
	}

	id := fmt.Sprintf("%s_%d", symbol, st.CandleKey)
	if e.ledger.Seen(id) {
		return
	}

	sig := Signal{
		Symbol:       symbol,
		Exchange:     mandatoryExchange,
		VolumeRatio:  ratio,
		Delta:        st.Delta,
		DeltaPercent: deltaPercent,
		Direction:    direction,
		Time:         now,
	}
	e.dispatcher.Enqueue(sig)

	st.AlertFired = true
	e.ledger.Add(id)

	e.logger.Info("spike alert fired",
		zap.String("symbol", symbol),
		zap.Float64("volume_ratio", ratio),
		zap.Float64("delta_percent", deltaPercent),
		zap.String("direction", string(direction)))
}

// FiredCount reports how many alerts have been recorded so far.
func (e *Engine) FiredCount() int {
	return e.ledger.Size()
}
