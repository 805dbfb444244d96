// Package connectivity polls transport liveness and the room directory on
// independent timers. Purely observational: it owns no state beyond what it
// writes into the shared client state container.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"unoroom/internal/models"
	"unoroom/internal/state"
)

// Probe is the slice of the transport the monitor needs.
type Probe interface {
	IsConnected() bool
	GetActiveRooms(ctx context.Context) ([]models.Room, error)
}

const (
	DefaultLivenessInterval  = 5 * time.Second
	DefaultDirectoryInterval = 10 * time.Second
)

// Monitor runs the two polling loops. Both tickers live exactly as long as
// the context passed to Start.
type Monitor struct {
	probe Probe
	st    *state.Client
	log   *logrus.Logger

	livenessEvery  time.Duration
	directoryEvery time.Duration

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// New builds a monitor. Zero intervals fall back to the defaults.
func New(probe Probe, st *state.Client, logger *logrus.Logger, livenessEvery, directoryEvery time.Duration) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}
	if livenessEvery <= 0 {
		livenessEvery = DefaultLivenessInterval
	}
	if directoryEvery <= 0 {
		directoryEvery = DefaultDirectoryInterval
	}
	return &Monitor{
		probe:          probe,
		st:             st,
		log:            logger,
		livenessEvery:  livenessEvery,
		directoryEvery: directoryEvery,
	}
}

// Start launches both loops. They stop when ctx ends or Stop is called,
// whichever comes first.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Stop cancels the loops and waits for them to exit. Safe to call more than
// once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
	})
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	liveness := time.NewTicker(m.livenessEvery)
	defer liveness.Stop()
	directory := time.NewTicker(m.directoryEvery)
	defer directory.Stop()

	// Prime both so callers don't wait a full interval for the first view.
	m.checkLiveness()
	m.refreshDirectory(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-liveness.C:
			m.checkLiveness()
		case <-directory.C:
			m.refreshDirectory(ctx)
		}
	}
}

func (m *Monitor) checkLiveness() {
	up := m.probe.IsConnected()
	wasUp, _ := m.st.Connected()
	m.st.SetConnected(up, "")
	if up != wasUp {
		if up {
			m.log.Info("transport connection restored")
		} else {
			m.log.Warn("transport connection lost")
		}
	}
}

// refreshDirectory re-fetches the room listing. Suspended while the
// transport is down; polling resumes by itself once liveness returns.
func (m *Monitor) refreshDirectory(ctx context.Context) {
	if !m.probe.IsConnected() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.directoryEvery)
	defer cancel()
	rooms, err := m.probe.GetActiveRooms(ctx)
	if err != nil {
		m.log.WithError(err).Debug("room directory refresh failed")
		return
	}
	m.st.SetDirectory(rooms)
}
