package feed

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"spikewatch/internal/market"
	"spikewatch/pkg/ws"

	"go.uber.org/zap"
)

// gateMessage is the Gate futures stream envelope. Result stays raw so one
// malformed trade doesn't discard its siblings.
type gateMessage struct {
	Event   string            `json:"event"`
	Channel string            `json:"channel"`
	Result  []json.RawMessage `json:"result"`
}

// gateTrade reports size in signed contracts: positive is a buy, negative a
// sell. create_time_ms may carry a fractional part.
type gateTrade struct {
	Size         float64 `json:"size"`
	CreateTimeMs float64 `json:"create_time_ms"`
}

// RunGateTrades streams futures trades for one symbol. Gate has no candle
// stream here, so the candle is derived trade by trade: the running total is
// archived whenever the minute boundary passes. On demand.
func (f *Feeds) RunGateTrades(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for gate trade feed", zap.String("symbol", symbol))
		return
	}

	logger := f.feedLogger("gate", "futures.trades", symbol)
	client := ws.NewClient(f.cfg.Venues.GateWSURL, logger)
	client.SetSubscribe(func() any {
		return map[string]any{
			"time":    time.Now().Unix(),
			"channel": "futures.trades",
			"event":   "subscribe",
			"payload": []string{sc.Gate},
		}
	})
	client.SetMessageHandler(func(msg []byte) {
		f.handleGateMessage(symbol, sc.GateContractSize, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleGateMessage(symbol string, contractSize float64, msg []byte, logger *zap.Logger) {
	var m gateMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse gate message", zap.Error(err))
		return
	}
	if m.Event != "update" || m.Channel != "futures.trades" {
		return
	}

	for _, raw := range m.Result {
		var t gateTrade
		if err := json.Unmarshal(raw, &t); err != nil {
			// One bad trade must not stop the stream or the batch.
			logger.Warn("failed to parse gate trade", zap.Error(err))
			continue
		}

		ts := int64(t.CreateTimeMs)
		trade := market.Trade{
			Qty:       math.Abs(t.Size) * contractSize,
			Sell:      t.Size <= 0,
			CandleKey: ts / 60000 * 60000,
		}
		f.store.Update(symbol, market.VenueGate, func(st *market.ExchangeState) {
			st.ApplyTrade(trade)
		})
	}
}
