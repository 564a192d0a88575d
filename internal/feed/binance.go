package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"spikewatch/internal/market"
	"spikewatch/pkg/ws"

	"go.uber.org/zap"
)

// binanceKlineMessage is the Binance futures kline stream payload. Prices and
// volume arrive as strings.
type binanceKlineMessage struct {
	Kline struct {
		Open   string `json:"o"`
		High   string `json:"h"`
		Low    string `json:"l"`
		Close  string `json:"c"`
		Volume string `json:"v"`
		Closed bool   `json:"x"`
	} `json:"k"`
}

// binanceAggTradeMessage is one aggregated trade. Maker=true means the buyer
// was the maker, i.e. the aggressor sold.
type binanceAggTradeMessage struct {
	Quantity  string `json:"q"`
	Maker     bool   `json:"m"`
	TradeTime int64  `json:"T"`
}

// RunBinanceKline streams candle snapshots for one symbol and keeps the
// in-progress OHLC and volume current. Runs for the process lifetime.
func (f *Feeds) RunBinanceKline(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for binance kline feed", zap.String("symbol", symbol))
		return
	}

	f.store.MarkMonitorStart(symbol, time.Now())

	logger := f.feedLogger("binance", "kline", symbol)
	client := ws.NewClient(f.cfg.Venues.BinanceWSURL+sc.Binance+"@kline_1m", logger)
	client.SetMessageHandler(func(msg []byte) {
		f.handleBinanceKline(symbol, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleBinanceKline(symbol string, msg []byte, logger *zap.Logger) {
	var m binanceKlineMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse kline payload", zap.Error(err))
		return
	}

	open, err1 := strconv.ParseFloat(m.Kline.Open, 64)
	high, err2 := strconv.ParseFloat(m.Kline.High, 64)
	low, err3 := strconv.ParseFloat(m.Kline.Low, 64)
	closePrice, err4 := strconv.ParseFloat(m.Kline.Close, 64)
	volume, err5 := strconv.ParseFloat(m.Kline.Volume, 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			logger.Warn("invalid kline field", zap.Error(err))
			return
		}
	}

	candle := market.Candle{
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
		Closed: m.Kline.Closed,
	}

	f.store.Update(symbol, market.VenueBinance, func(st *market.ExchangeState) {
		st.ApplyCandle(candle)
		f.engine.Evaluate(symbol, st)
	})
}

// RunBinanceTrades streams aggregated trades for one symbol and keeps the
// buy/sell split and delta current. Runs for the process lifetime.
func (f *Feeds) RunBinanceTrades(ctx context.Context, symbol string) {
	sc, ok := f.cfg.Symbols[symbol]
	if !ok {
		f.logger.Error("unknown symbol for binance trade feed", zap.String("symbol", symbol))
		return
	}

	f.store.MarkMonitorStart(symbol, time.Now())

	logger := f.feedLogger("binance", "aggTrade", symbol)
	client := ws.NewClient(f.cfg.Venues.BinanceWSURL+sc.Binance+"@aggTrade", logger)
	client.SetMessageHandler(func(msg []byte) {
		f.handleBinanceTrade(symbol, msg, logger)
	})
	client.Listen(ctx)
}

func (f *Feeds) handleBinanceTrade(symbol string, msg []byte, logger *zap.Logger) {
	var m binanceAggTradeMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Warn("failed to parse aggTrade payload", zap.Error(err))
		return
	}

	qty, err := strconv.ParseFloat(m.Quantity, 64)
	if err != nil {
		logger.Warn("invalid trade quantity", zap.Error(err))
		return
	}

	trade := market.Trade{
		Qty:       qty,
		Sell:      m.Maker,
		CandleKey: m.TradeTime / 60000,
	}

	f.store.Update(symbol, market.VenueBinance, func(st *market.ExchangeState) {
		st.ApplyTrade(trade)
		f.engine.Evaluate(symbol, st)
	})
}
