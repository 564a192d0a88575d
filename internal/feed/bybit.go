package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"spikewatch/internal/market"
	"spikewatch/pkg/ws"

	"go.uber.org/zap"
)

// bybitMessage is the common Bybit v5 stream envelope; Data stays raw until
// the topic identifies the payload shape.
type bybitMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

type bybitKline struct {
	Volume  string `json:"volume"`
	Confirm bool   `json:"confirm"`
}

type bybitTrade struct {
	Size      string `json:"v"`
	Side      string `json:"S"` // "Buy" or "Sell"
	TradeTime int64  `json:"T"`
}

// RunBybitKline streams candle snapshots for one symbol. On demand: the
// supervisor cancels ctx to stop it.
func (f *Feeds) RunBybitKline(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for bybit kline feed", zap.String("symbol", symbol))
		return
	}

	logger := f.feedLogger("bybit", "kline", symbol)
	client := ws.NewClient(f.cfg.Venues.BybitWSURL, logger)
	client.SetSubscribe(func() any {
		return map[string]any{
			"op":   "subscribe",
			"args": []string{"kline.1." + sc.Bybit},
		}
	})
	client.SetMessageHandler(func(msg []byte) {
		f.handleBybitKline(symbol, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleBybitKline(symbol string, msg []byte, logger *zap.Logger) {
	var m bybitMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse bybit message", zap.Error(err))
		return
	}
	if !strings.HasPrefix(m.Topic, "kline.") {
		return // subscription ack or heartbeat
	}

	var klines []bybitKline
	if err := json.Unmarshal(m.Data, &klines); err != nil {
		logger.Warn("failed to parse bybit kline data", zap.Error(err))
		return
	}

	for _, k := range klines {
		volume, err := strconv.ParseFloat(k.Volume, 64)
		if err != nil {
			logger.Warn("invalid bybit kline volume", zap.Error(err))
			continue
		}
		candle := market.Candle{Volume: volume, Closed: k.Confirm}
		f.store.Update(symbol, market.VenueBybit, func(st *market.ExchangeState) {
			st.ApplyCandle(candle)
		})
	}
}

// RunBybitTrades streams public trades for one symbol. On demand.
func (f *Feeds) RunBybitTrades(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for bybit trade feed", zap.String("symbol", symbol))
		return
	}

	logger := f.feedLogger("bybit", "publicTrade", symbol)
	client := ws.NewClient(f.cfg.Venues.BybitWSURL, logger)
	client.SetSubscribe(func() any {
		return map[string]any{
			"op":   "subscribe",
			"args": []string{"publicTrade." + sc.Bybit},
		}
	})
	client.SetMessageHandler(func(msg []byte) {
		f.handleBybitTrade(symbol, sc.Bybit, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleBybitTrade(symbol, venueSymbol string, msg []byte, logger *zap.Logger) {
	var m bybitMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse bybit message", zap.Error(err))
		return
	}
	if m.Topic != "publicTrade."+venueSymbol {
		return
	}

	var trades []bybitTrade
	if err := json.Unmarshal(m.Data, &trades); err != nil {
		logger.Warn("failed to parse bybit trade data", zap.Error(err))
		return
	}

	for _, t := range trades {
		qty, err := strconv.ParseFloat(t.Size, 64)
		if err != nil {
			logger.Warn("invalid bybit trade size", zap.Error(err))
			continue
		}
		trade := market.Trade{
			Qty:       qty,
			Sell:      t.Side == "Sell",
			CandleKey: t.TradeTime / 60000,
		}
		f.store.Update(symbol, market.VenueBybit, func(st *market.ExchangeState) {
			st.ApplyTrade(trade)
		})
	}
}
