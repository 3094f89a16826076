// Package integritymonitor periodically checks that an index.Index's
// internal bookkeeping is still consistent, and samples stored hashes for
// self-match queries. Adapted from the teacher's health_monitor: the same
// ticker/streak/channel shape, repurposed to poll an in-process index
// instead of a fleet of network backends.
package integritymonitor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"

	"pdqindex-go/index"
	ilog "pdqindex-go/x/log"
)

// ErrChannelNotEnabled is returned by CorruptChan/RecoveredChan when the
// corresponding option was not supplied at construction time.
var ErrChannelNotEnabled = fmt.Errorf("channel not enabled")

// Monitor periodically checks one index.Index[M]'s integrity.
type Monitor[M any] struct {
	cfg   Config
	index *index.Index[M]

	streak   streak
	outChans outputChannels

	ctx           context.Context
	cancelCtx     context.CancelFunc
	tickerStopped chan struct{}

	mu          sync.Mutex
	lastChecked time.Time
	lastCorrupt bool
	lastReason  string
}

type outputChannels struct {
	enableCorrupt   bool
	corruptChan     chan *Report
	enableRecovered bool
	recoveredChan   chan *Report
}

// New constructs a Monitor watching ix. The monitor does not start
// checking until Start is called.
func New[M any](ctx context.Context, ix *index.Index[M], opts ...Option) (*Monitor[M], error) {
	cfg := Config{
		logger: ilog.Logger.With().Str("component", "integritymonitor").Logger().Level(zerolog.InfoLevel),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Monitor[M]{
		cfg:           cfg,
		index:         ix,
		outChans:      newOutputChannels(cfg.EnableCorruptChannel, cfg.EnableRecoveredChannel),
		ctx:           ctx,
		cancelCtx:     cancel,
		tickerStopped: make(chan struct{}),
	}, nil
}

// Start runs the check loop non-blocking. Call Stop to end it.
func (m *Monitor[M]) Start() {
	m.cfg.logger.Info().Interface("config", m.cfg).Msg("starting integrity monitor")
	go func() {
		defer close(m.tickerStopped)

		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.check()
			}
		}
	}()
}

// Stop ends the check loop and closes any enabled channels.
func (m *Monitor[M]) Stop() {
	m.cfg.logger.Info().Msg("stopping integrity monitor")
	m.cancelCtx()
	m.outChans.close()
	<-m.tickerStopped
}

// CorruptChan returns a channel that receives a Report each time the
// index transitions into a corrupt state.
func (m *Monitor[M]) CorruptChan() (<-chan *Report, error) {
	if !m.outChans.enableCorrupt {
		return nil, ErrChannelNotEnabled
	}
	return m.outChans.corruptChan, nil
}

// RecoveredChan returns a channel that receives a Report each time the
// index transitions out of a corrupt state.
func (m *Monitor[M]) RecoveredChan() (<-chan *Report, error) {
	if !m.outChans.enableRecovered {
		return nil, ErrChannelNotEnabled
	}
	return m.outChans.recoveredChan, nil
}

// IsCorrupt reports the last-observed integrity state.
func (m *Monitor[M]) IsCorrupt() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCorrupt
}

// LastCheckedAt returns the time of the most recent check.
func (m *Monitor[M]) LastCheckedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastChecked
}

// Check runs one integrity check synchronously and returns whatever
// inconsistency it found, or "" if none. It is exported so callers can
// run an ad hoc check outside the ticker loop (e.g. right after Restore).
func (m *Monitor[M]) Check() string {
	return m.verify()
}

func (m *Monitor[M]) check() {
	m.mu.Lock()
	m.lastChecked = time.Now()
	m.mu.Unlock()

	reason := m.verify()
	if reason != "" {
		if corrupt, newly := m.streak.fail(m.cfg.UnhealthyThreshold, reason); newly {
			m.setState(corrupt, reason)
			m.outChans.sendCorrupt(toReport(true, reason))
			m.cfg.logger.Warn().Str("reason", reason).Msg("index entered corrupt state")
		} else {
			m.cfg.logger.Debug().Str("reason", reason).Msg("integrity check failed")
		}
		return
	}

	if corrupt, newly := m.streak.success(m.cfg.HealthyThreshold); newly {
		m.setState(corrupt, "")
		m.outChans.sendRecovered(toReport(false, ""))
		m.cfg.logger.Info().Msg("index recovered from corrupt state")
	}
}

func (m *Monitor[M]) setState(corrupt bool, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCorrupt = corrupt
	m.lastReason = reason
}

// verify checks the count invariant (stored entries == backend entries)
// and, if SampleSize > 0, self-match-samples that many random stored
// hashes against the live index.
func (m *Monitor[M]) verify() string {
	entries := m.index.Entries()
	storedCount := entries.Len()
	backendCount := m.index.Backend().Len()
	if storedCount != backendCount {
		return fmt.Sprintf("entry count %d does not match backend count %d", storedCount, backendCount)
	}

	if m.cfg.SampleSize <= 0 || storedCount == 0 {
		return ""
	}

	hashes, _ := entries.Snapshot()
	n := m.cfg.SampleSize
	if n > len(hashes) {
		n = len(hashes)
	}
	for i := 0; i < n; i++ {
		h := hashes[rand.Intn(len(hashes))]
		matches, err := m.index.Query(h.Hex())
		if err != nil {
			return fmt.Sprintf("self-match query failed for a stored hash: %v", err)
		}
		found := false
		for _, match := range matches {
			if match.Distance == 0 {
				found = true
				break
			}
		}
		if !found {
			return "a stored hash no longer self-matches at distance 0"
		}
	}
	return ""
}

func newOutputChannels(enableCorrupt, enableRecovered bool) outputChannels {
	o := outputChannels{enableCorrupt: enableCorrupt, enableRecovered: enableRecovered}
	if enableCorrupt {
		o.corruptChan = make(chan *Report, 1)
	}
	if enableRecovered {
		o.recoveredChan = make(chan *Report, 1)
	}
	return o
}

func (o *outputChannels) sendCorrupt(r *Report) {
	if o.enableCorrupt {
		o.corruptChan <- r
	}
}

func (o *outputChannels) sendRecovered(r *Report) {
	if o.enableRecovered {
		o.recoveredChan <- r
	}
}

func (o *outputChannels) close() {
	if o.enableCorrupt {
		close(o.corruptChan)
	}
	if o.enableRecovered {
		close(o.recoveredChan)
	}
}
