// README: Partner session service: optimistic online/offline toggle with rollback.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"courier/internal/optimistic"
	"courier/internal/types"
)

var ErrBusy = errors.New("status change already in progress")

// Backend confirms availability changes with the platform.
type Backend interface {
	ToggleOnlineStatus(ctx context.Context, online bool) error
}

// KV is the device-local key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Service struct {
	backend Backend
	kv      KV
	key     string
	log     *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	committed Snapshot
	pending   *bool
}

func NewService(partnerID types.ID, backend Backend, kv KV, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		backend: backend,
		kv:      kv,
		key:     StorageKey(partnerID),
		log:     log.With("module", "session"),
		now:     time.Now,
	}
}

// Load rehydrates the persisted snapshot. Missing or unreadable data falls
// back to an offline session with zeroed numbers.
func (s *Service) Load(ctx context.Context) Snapshot {
	snap := Snapshot{TodayEarnings: types.INR(0)}
	if s.kv != nil {
		raw, ok, err := s.kv.Get(ctx, s.key)
		switch {
		case err != nil:
			s.log.Warn("read partner session", "key", s.key, "error", err)
		case !ok:
			s.log.Info("no persisted partner session", "key", s.key)
		default:
			var stored Snapshot
			if err := json.Unmarshal(raw, &stored); err != nil {
				s.log.Warn("discarding corrupt partner session", "key", s.key, "error", err)
			} else {
				snap = stored
				if snap.TodayEarnings.Currency == "" {
					snap.TodayEarnings.Currency = types.DefaultCurrency
				}
				if snap.CompletedOrders < 0 {
					snap.CompletedOrders = 0
				}
			}
		}
	}
	s.mu.Lock()
	s.committed = snap
	s.pending = nil
	s.mu.Unlock()
	return snap
}

// Online is the flag the UI shows, including a toggle still awaiting the backend.
func (s *Service) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return *s.pending
	}
	return s.committed.Online
}

// AcceptingOffers is true only for a confirmed online session that is not on
// its way offline.
func (s *Service) AcceptingOffers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil && !*s.pending {
		return false
	}
	return s.committed.Online
}

func (s *Service) Toggling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

func (s *Service) GoOnline(ctx context.Context) error {
	return s.SetOnline(ctx, true)
}

func (s *Service) GoOffline(ctx context.Context) error {
	return s.SetOnline(ctx, false)
}

// SetOnline changes availability. The new value is visible immediately but only
// committed once the backend confirms; on failure the previous value is restored
// and the backend error returned.
func (s *Service) SetOnline(ctx context.Context, online bool) error {
	noop := false
	err := optimistic.Do(ctx, optimistic.Change{
		Apply: func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.pending != nil {
				return ErrBusy
			}
			if s.committed.Online == online {
				noop = true
				return nil
			}
			v := online
			s.pending = &v
			return nil
		},
		Commit: func() {
			if noop {
				return
			}
			s.mu.Lock()
			s.committed.Online = online
			s.committed.SavedAt = s.now()
			s.pending = nil
			snap := s.committed
			s.mu.Unlock()
			s.persist(ctx, snap)
		},
		Rollback: func() {
			s.mu.Lock()
			s.pending = nil
			s.mu.Unlock()
		},
	}, func(ctx context.Context) error {
		if noop || s.backend == nil {
			return nil
		}
		return s.backend.ToggleOnlineStatus(ctx, online)
	})
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return err
		}
		s.log.Warn("toggle online status failed", "online", online, "error", err)
		return fmt.Errorf("toggle online status: %w", err)
	}
	if !noop {
		s.log.Info("online status changed", "online", online)
	}
	return nil
}

// RecordDashboard refreshes the cached dashboard numbers.
func (s *Service) RecordDashboard(ctx context.Context, today types.Money, completed int) {
	s.mu.Lock()
	if s.committed.TodayEarnings == today && s.committed.CompletedOrders == completed {
		s.mu.Unlock()
		return
	}
	s.committed.TodayEarnings = today
	s.committed.CompletedOrders = completed
	s.committed.SavedAt = s.now()
	snap := s.committed
	s.mu.Unlock()
	s.persist(ctx, snap)
}

func (s *Service) persist(ctx context.Context, snap Snapshot) {
	if s.kv == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("encode partner session", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		s.log.Warn("persist partner session", "key", s.key, "error", err)
	}
}
