// Package feed implements the per-venue stream adapters. Each adapter owns
// one WebSocket stream for one symbol, parses the venue's message format and
// applies the result to that symbol's ExchangeState. Binance is the mandatory
// venue: its two streams run for every symbol for the process lifetime and
// drive the spike alert engine. Bybit, Gate and OKX run on demand under the
// supervisor's control.
package feed

import (
	"spikewatch/config"
	"spikewatch/internal/alert"
	"spikewatch/internal/market"

	"go.uber.org/zap"
)

// Feeds bundles the dependencies shared by every adapter. All state flows
// through the injected store; there are no package-level globals.
type Feeds struct {
	cfg    *config.Config
	store  *market.Store
	engine *alert.Engine
	logger *zap.Logger
}

func New(cfg *config.Config, store *market.Store, engine *alert.Engine, logger *zap.Logger) *Feeds {
	return &Feeds{
		cfg:    cfg,
		store:  store,
		engine: engine,
		logger: logger,
	}
}

func (f *Feeds) feedLogger(venue, stream, symbol string) *zap.Logger {
	return f.logger.With(
		zap.String("venue", venue),
		zap.String("stream", stream),
		zap.String("symbol", symbol),
	)
}
