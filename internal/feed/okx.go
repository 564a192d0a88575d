package feed

import (
	"context"
	"encoding/json"
	"strconv"

	"spikewatch/internal/market"
	"spikewatch/pkg/ws"

	"go.uber.org/zap"
)

// okxMessage is the OKX public stream envelope; messages with an "event"
// field are subscription acks or errors, not data.
type okxMessage struct {
	Event string            `json:"event"`
	Data  []json.RawMessage `json:"data"`
}

// okxTrade quotes size in contracts; side is "buy" or "sell".
type okxTrade struct {
	Size      string `json:"sz"`
	Side      string `json:"side"`
	Timestamp string `json:"ts"`
}

// RunOKXTrades streams swap trades for one symbol. Like Gate, OKX has no
// candle stream here, so candles are derived from the trade tape. On demand.
func (f *Feeds) RunOKXTrades(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for okx trade feed", zap.String("symbol", symbol))
		return
	}

	logger := f.feedLogger("okx", "trades", symbol)
	client := ws.NewClient(f.cfg.Venues.OKXWSURL, logger)
	client.SetSubscribe(func() any {
		return map[string]any{
			"op": "subscribe",
			"args": []map[string]string{{
				"channel": "trades",
				"instId":  sc.OKX,
			}},
		}
	})
	client.SetMessageHandler(func(msg []byte) {
		f.handleOKXMessage(symbol, sc.OKXContractSize, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleOKXMessage(symbol string, contractSize float64, msg []byte, logger *zap.Logger) {
	var m okxMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse okx message", zap.Error(err))
		return
	}
	if m.Event != "" || len(m.Data) == 0 {
		return
	}

	for _, raw := range m.Data {
		var t okxTrade
		if err := json.Unmarshal(raw, &t); err != nil {
			logger.Warn("failed to parse okx trade", zap.Error(err))
			continue
		}

		contracts, err := strconv.ParseFloat(t.Size, 64)
		if err != nil {
			logger.Warn("invalid okx trade size", zap.Error(err))
			continue
		}
		ts, err := strconv.ParseInt(t.Timestamp, 10, 64)
		if err != nil {
			logger.Warn("invalid okx trade timestamp", zap.Error(err))
			continue
		}

		trade := market.Trade{
			Qty:       contracts * contractSize,
			Sell:      t.Side == "sell",
			CandleKey: ts / 60000,
		}
		f.store.Update(symbol, market.VenueOKX, func(st *market.ExchangeState) {
			st.ApplyTrade(trade)
		})
	}
}
