package aiusage

import (
	"context"
	"time"
)

// Service orchestrates AI token-usage logic.
type Service struct {
	store *Store
	now   func() time.Time
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

// UseToken deducts one token from the partner's daily allowance.
// If the row does not exist yet it is initialised and the token is immediately consumed.
// Returns ErrInsufficientTokens when today's quota is exhausted.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	day := s.now().Format(dayLayout)
	err := s.store.UseToken(ctx, uid, day)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, day); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid, day)
}

// Remaining reports today's unused tokens.
func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.store.Remaining(ctx, uid, s.now().Format(dayLayout))
}
