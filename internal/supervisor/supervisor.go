// Package supervisor owns feed lifecycle. The mandatory venue's tasks are
// spawned once for every configured symbol and live until process shutdown;
// the on-demand venues' tasks are started and stopped per symbol on external
// command, with guaranteed drain on stop.
package supervisor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"spikewatch/internal/market"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TaskFunc is one long-running feed task for one symbol. It must return only
// when ctx is cancelled.
type TaskFunc func(ctx context.Context, symbol string)

// Supervisor tracks which symbols have live on-demand feeds. It is safe for
// concurrent use by the control surface.
type Supervisor struct {
	store     *market.Store
	logger    *zap.Logger
	mandatory []TaskFunc
	onDemand  []TaskFunc

	mu      sync.Mutex
	baseCtx context.Context
	running map[string]*symbolTasks
}

type symbolTasks struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(store *market.Store, logger *zap.Logger, mandatory, onDemand []TaskFunc) *Supervisor {
	return &Supervisor{
		store:     store,
		logger:    logger,
		mandatory: mandatory,
		onDemand:  onDemand,
		running:   make(map[string]*symbolTasks),
	}
}

// Run spawns the mandatory feeds for every configured symbol and records the
// base context that on-demand feeds will inherit. It returns immediately;
// the spawned tasks live until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	symbols := s.store.Symbols()
	for _, symbol := range symbols {
		for _, task := range s.mandatory {
			go task(ctx, symbol)
		}
	}
	s.logger.Info("mandatory feeds started",
		zap.Int("symbols", len(symbols)),
		zap.Int("streams_per_symbol", len(s.mandatory)))
}

// Start activates the on-demand feeds for one symbol. Idempotent: a symbol
// that is already active keeps its existing tasks.
func (s *Supervisor) Start(symbol string) error {
	if !s.store.Has(symbol) {
		return fmt.Errorf("unknown symbol %q", symbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx == nil {
		return fmt.Errorf("supervisor not running")
	}
	if _, ok := s.running[symbol]; ok {
		return nil // already active
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	st := &symbolTasks{cancel: cancel}
	for _, task := range s.onDemand {
		task := task
		st.wg.Add(1)
		go func() {
			defer st.wg.Done()
			task(ctx, symbol)
		}()
	}
	s.running[symbol] = st

	s.logger.Info("on-demand feeds started",
		zap.String("symbol", symbol), zap.Int("tasks", len(s.onDemand)))
	return nil
}

// Stop deactivates the on-demand feeds for one symbol and does not return
// until every task has fully stopped; afterwards the symbol's on-demand state
// is cleared, and no further writes to it can occur. A symbol with no
// running tasks is a no-op.
func (s *Supervisor) Stop(symbol string) {
	// The lock is held across the drain so a concurrent Start cannot spawn a
	// second task set while the old one is still winding down.
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.running[symbol]
	if !ok {
		return
	}
	delete(s.running, symbol)

	st.cancel()
	st.wg.Wait()
	s.store.ResetOnDemand(symbol)

	s.logger.Info("on-demand feeds stopped", zap.String("symbol", symbol))
}

// Active returns the symbols with live on-demand feeds, sorted.
func (s *Supervisor) Active() []string {
	s.mu.Lock()
	symbols := lo.Keys(s.running)
	s.mu.Unlock()
	sort.Strings(symbols)
	return symbols
}

// IsActive reports whether the symbol's on-demand feeds are running.
func (s *Supervisor) IsActive(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[symbol]
	return ok
}
