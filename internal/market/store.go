package market

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Store owns every (symbol, venue) aggregation record. Slots are created once
// at startup from the configured symbol list; feeds mutate them through
// Update, which holds the per-symbol lock, and readers take lock-guarded
// copies via Snapshot. No slot is ever added or removed at runtime.
type Store struct {
	window  int
	symbols map[string]*symbolState
}

type symbolState struct {
	mu     sync.Mutex
	venues map[Venue]*ExchangeState
}

func NewStore(symbols []string, window int) *Store {
	s := &Store{
		window:  window,
		symbols: make(map[string]*symbolState, len(symbols)),
	}
	for _, sym := range symbols {
		s.symbols[sym] = &symbolState{
			venues: map[Venue]*ExchangeState{
				VenueBinance: newExchangeState(VenueBinance, NativeCandles, window),
				VenueBybit:   newExchangeState(VenueBybit, NativeCandles, window),
				VenueGate:    newExchangeState(VenueGate, DerivedCandles, window),
				VenueOKX:     newExchangeState(VenueOKX, DerivedCandles, window),
			},
		}
	}
	return s
}

// Update runs fn against one venue's state while holding the symbol lock.
// Unknown symbols are ignored; the symbol set is fixed at startup, so an
// unknown symbol is a programming error upstream, not a runtime condition.
func (s *Store) Update(symbol string, v Venue, fn func(*ExchangeState)) {
	ss, ok := s.symbols[symbol]
	if !ok {
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	fn(ss.venues[v])
}

// MarkMonitorStart stamps the warm-up clock for the mandatory venue. Only the
// first call per symbol takes effect; reconnects do not restart the warm-up.
func (s *Store) MarkMonitorStart(symbol string, now time.Time) {
	s.Update(symbol, VenueBinance, func(st *ExchangeState) {
		if st.MonitorStart.IsZero() {
			st.MonitorStart = now
		}
	})
}

// ResetOnDemand clears the accumulators of the three on-demand venues for one
// symbol. Called after the supervisor has drained the symbol's feeds, so no
// writer races the reset.
func (s *Store) ResetOnDemand(symbol string) {
	ss, ok := s.symbols[symbol]
	if !ok {
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, v := range OnDemandVenues {
		ss.venues[v].reset()
	}
}

// Has reports whether the symbol was configured at startup.
func (s *Store) Has(symbol string) bool {
	_, ok := s.symbols[symbol]
	return ok
}

// Symbols returns the configured symbol list, sorted.
func (s *Store) Symbols() []string {
	symbols := lo.Keys(s.symbols)
	sort.Strings(symbols)
	return symbols
}

// VenueSnapshot is a point-in-time copy of one ExchangeState.
type VenueSnapshot struct {
	CurrentVolume float64   `json:"current_volume"`
	AvgVolume     float64   `json:"avg_volume"`
	History       []float64 `json:"history"`
	BuyVolume     float64   `json:"buy_volume"`
	SellVolume    float64   `json:"sell_volume"`
	Delta         float64   `json:"delta"`

	CandleOpen  float64 `json:"candle_open,omitempty"`
	CandleClose float64 `json:"candle_close,omitempty"`
	CandleHigh  float64 `json:"candle_high,omitempty"`
	CandleLow   float64 `json:"candle_low,omitempty"`
	AlertFired  bool    `json:"alert_fired,omitempty"`
}

// CombinedSnapshot sums the per-venue figures for one symbol. The venues roll
// their candles over independently, so this mixes partial and full candles;
// that matches what the monitor has always displayed and is a known
// approximation, not something to correct here.
type CombinedSnapshot struct {
	CurrentVolume float64 `json:"current_volume"`
	AvgVolume     float64 `json:"avg_volume"`
	Delta         float64 `json:"delta"`
}

type SymbolSnapshot struct {
	Venues   map[Venue]VenueSnapshot `json:"venues"`
	Combined CombinedSnapshot        `json:"combined"`
}

// Snapshot copies the full state of every symbol for the read-only surface.
func (s *Store) Snapshot() map[string]SymbolSnapshot {
	out := make(map[string]SymbolSnapshot, len(s.symbols))
	for sym, ss := range s.symbols {
		ss.mu.Lock()
		snap := SymbolSnapshot{Venues: make(map[Venue]VenueSnapshot, len(ss.venues))}
		for v, st := range ss.venues {
			vs := VenueSnapshot{
				CurrentVolume: st.CurrentVolume,
				AvgVolume:     st.AvgVolume,
				History:       append([]float64(nil), st.History...),
				BuyVolume:     st.BuyVolume,
				SellVolume:    st.SellVolume,
				Delta:         st.Delta,
				CandleOpen:    st.CandleOpen,
				CandleClose:   st.CandleClose,
				CandleHigh:    st.CandleHigh,
				CandleLow:     st.CandleLow,
				AlertFired:    st.AlertFired,
			}
			snap.Venues[v] = vs
			snap.Combined.CurrentVolume += st.CurrentVolume
			snap.Combined.AvgVolume += st.AvgVolume
			snap.Combined.Delta += st.Delta
		}
		ss.mu.Unlock()
		out[sym] = snap
	}
	return out
}
