package market

import "time"

// Venue identifies one of the four tracked exchanges.
type Venue string

const (
	VenueBinance Venue = "binance" // mandatory, always streaming
	VenueBybit   Venue = "bybit"
	VenueGate    Venue = "gate"
	VenueOKX     Venue = "okx"
)

// OnDemandVenues are the venues whose feeds only run while a symbol is
// explicitly activated.
var OnDemandVenues = []Venue{VenueBybit, VenueGate, VenueOKX}

// RolloverMode selects how a venue's candle boundary feeds the volume history.
type RolloverMode int

const (
	// NativeCandles: the venue streams its own candle snapshots, so the
	// candle message archives the venue-reported volume; trade messages only
	// drive buy/sell attribution.
	NativeCandles RolloverMode = iota
	// DerivedCandles: no candle stream exists, volume accumulates trade by
	// trade and the running total is archived when the minute bucket changes.
	DerivedCandles
)

// Candle is one candle snapshot from a venue's kline stream.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Closed bool
}

// Trade is one normalized trade: Qty is already in base-asset units
// (contract sizes applied by the adapter) and CandleKey is the venue's
// minute bucket for the trade timestamp.
type Trade struct {
	Qty       float64
	Sell      bool
	CandleKey int64
}

// ExchangeState is the per-symbol, per-venue aggregation record. It is only
// mutated through the owning Store's Update, which serializes access per
// symbol; the OHLC, AlertFired and MonitorStart fields are populated for the
// mandatory venue only.
type ExchangeState struct {
	Venue Venue

	CurrentVolume float64
	AvgVolume     float64
	History       []float64
	BuyVolume     float64
	SellVolume    float64
	Delta         float64

	CandleKey    int64
	CandleKeySet bool

	CandleOpen  float64
	CandleClose float64
	CandleHigh  float64
	CandleLow   float64

	AlertFired   bool
	MonitorStart time.Time

	mode      RolloverMode
	mandatory bool
	window    int
}

func newExchangeState(v Venue, mode RolloverMode, window int) *ExchangeState {
	return &ExchangeState{
		Venue:     v,
		History:   make([]float64, 0, window),
		mode:      mode,
		mandatory: v == VenueBinance,
		window:    window,
	}
}

// ApplyCandle ingests one candle snapshot (native-candle venues only). The
// in-progress volume always tracks the venue-reported figure; a closed candle
// archives that figure and, on the mandatory venue, re-arms the alert.
func (s *ExchangeState) ApplyCandle(c Candle) {
	s.CurrentVolume = c.Volume

	if s.mandatory {
		s.CandleOpen = c.Open
		s.CandleClose = c.Close
		s.CandleHigh = c.High
		s.CandleLow = c.Low
	}

	if c.Closed {
		s.archive(c.Volume)
		if s.mandatory {
			s.AlertFired = false
		}
	}
}

// ApplyTrade ingests one trade. The very first observation only records the
// candle key; afterwards a key change triggers the venue's rollover before
// the trade is accumulated.
func (s *ExchangeState) ApplyTrade(t Trade) {
	if !s.CandleKeySet {
		s.CandleKey = t.CandleKey
		s.CandleKeySet = true
	} else if t.CandleKey != s.CandleKey {
		if s.mode == DerivedCandles {
			s.archive(s.CurrentVolume)
			s.CurrentVolume = 0
		}
		s.BuyVolume = 0
		s.SellVolume = 0
		if s.mandatory {
			s.AlertFired = false
		}
		s.CandleKey = t.CandleKey
	}

	if s.mode == DerivedCandles {
		s.CurrentVolume += t.Qty
	}

	if t.Sell {
		s.SellVolume += t.Qty
	} else {
		s.BuyVolume += t.Qty
	}
	s.Delta = s.BuyVolume - s.SellVolume
}

// archive pushes one closed-candle volume into the bounded history and
// recomputes the rolling mean.
func (s *ExchangeState) archive(vol float64) {
	if len(s.History) == s.window {
		s.History = append(s.History[:0], s.History[1:]...)
		s.History = append(s.History, vol)
	} else {
		s.History = append(s.History, vol)
	}

	sum := 0.0
	for _, v := range s.History {
		sum += v
	}
	s.AvgVolume = sum / float64(len(s.History))
}

// reset discards accumulators and history. Used when an on-demand feed stops:
// the slot survives, the data does not.
func (s *ExchangeState) reset() {
	s.CurrentVolume = 0
	s.AvgVolume = 0
	s.History = s.History[:0]
	s.BuyVolume = 0
	s.SellVolume = 0
	s.Delta = 0
	s.CandleKey = 0
	s.CandleKeySet = false
}
