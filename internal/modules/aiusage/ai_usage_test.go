// README: AI-usage module tests (lazy reset and quota boundary logic).
package aiusage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"courier/internal/infra"
)

func setupTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := infra.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewService(NewStore(db))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, db
}

// TestUseTokenCrossDayReset verifies that a partner with 0 tokens left from a previous day
// is automatically reset and the request succeeds.
func TestUseTokenCrossDayReset(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if _, err := db.Exec("INSERT INTO ai_usage VALUES ('user_reset', 0, '2026-03-09')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.UseToken(ctx, "user_reset"); err != nil {
		t.Fatalf("UseToken after cross-day reset: %v", err)
	}

	var remaining int
	if err := db.QueryRow("SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_reset'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d tokens remaining, got %d", DefaultTokens-1, remaining)
	}
}

// TestUseTokenInsufficientCheck verifies that a partner with 0 tokens today is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	svc, db := setupTestService(t)

	if _, err := db.Exec("INSERT INTO ai_usage VALUES ('user_zero', 0, '2026-03-10')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.UseToken(context.Background(), "user_zero"); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

// TestUseTokenNewUser verifies that a partner absent from the table is initialised on first call.
func TestUseTokenNewUser(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	if err := svc.UseToken(ctx, "user_new"); err != nil {
		t.Fatalf("UseToken new user: %v", err)
	}
	left, err := svc.Remaining(ctx, "user_new")
	if err != nil {
		t.Fatal(err)
	}
	if left != DefaultTokens-1 {
		t.Fatalf("expected %d, got %d", DefaultTokens-1, left)
	}
}

func TestUseTokenExhaustsAllowance(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	for i := 0; i < DefaultTokens; i++ {
		if err := svc.UseToken(ctx, "p"); err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
	}
	if err := svc.UseToken(ctx, "p"); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}
