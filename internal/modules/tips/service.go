// README: Dashboard tip: model-written when configured and within quota, static otherwise.
package tips

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"courier/internal/ai"
	"courier/internal/modules/ledger"
	"courier/internal/types"
)

const (
	DefaultTTL    = time.Hour
	FallbackTitle = "Pro Tip"
	FallbackText  = "Going online during peak hours (12-2 PM & 7-9 PM) can help you earn more deliveries and tips!"

	SourceStatic = "static"
	SourceModel  = "model"
)

type Tip struct {
	Title       string    `json:"title"`
	Text        string    `json:"tip"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Quota limits model calls per partner.
type Quota interface {
	UseToken(ctx context.Context, uid string) error
}

type Service struct {
	provider  ai.LLMProvider
	quota     Quota
	partnerID types.ID
	ttl       time.Duration
	log       *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	cached *Tip
}

// NewService builds the tip source. provider and quota may be nil.
func NewService(provider ai.LLMProvider, quota Quota, partnerID types.ID, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider:  provider,
		quota:     quota,
		partnerID: partnerID,
		ttl:       ttl,
		log:       log.With("module", "tips"),
		now:       time.Now,
	}
}

// Current returns a tip for the dashboard. Model failures fall back to the
// static tip; the error is only logged.
func (s *Service) Current(ctx context.Context, online bool, sum *ledger.Summary) Tip {
	now := s.now()
	s.mu.Lock()
	if s.cached != nil && now.Sub(s.cached.GeneratedAt) < s.ttl {
		t := *s.cached
		s.mu.Unlock()
		return t
	}
	s.mu.Unlock()

	static := Tip{Title: FallbackTitle, Text: FallbackText, Source: SourceStatic, GeneratedAt: now}
	if s.provider == nil {
		return static
	}
	if s.quota != nil {
		if err := s.quota.UseToken(ctx, string(s.partnerID)); err != nil {
			s.log.Info("tip quota unavailable", "error", err)
			return static
		}
	}

	in := ai.TipContext{Now: now, Online: online}
	if sum != nil {
		in.TodayEarnings = sum.Today.String()
		in.TodayOrders = sum.TodayOrders
		in.WeekEarnings = sum.Week.String()
		in.TotalCompleted = sum.TotalCompleted
		in.BestDay = bestDay(sum.Weekly)
	}
	res, err := s.provider.SuggestTip(ctx, in)
	if err != nil {
		s.log.Warn("tip generation failed", "error", err)
		return static
	}
	tip := Tip{Title: res.Title, Text: res.Tip, Source: SourceModel, GeneratedAt: now}
	s.mu.Lock()
	s.cached = &tip
	s.mu.Unlock()
	return tip
}

func bestDay(weekly []ledger.DayBucket) string {
	best := -1
	for i, b := range weekly {
		if b.Amount.Amount > 0 && (best < 0 || b.Amount.Amount > weekly[best].Amount.Amount) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return weekly[best].Label
}
