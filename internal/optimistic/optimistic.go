// README: Apply-then-confirm helper for local state that mirrors a remote call.
package optimistic

import "context"

// Change describes a tentative local mutation.
// Apply runs first and may refuse the change by returning an error, in which
// case the remote call is never made. Commit runs after the call succeeds,
// Rollback after it fails.
type Change struct {
	Apply    func() error
	Commit   func()
	Rollback func()
}

// Do applies c, awaits call and then commits or rolls back.
// The error from call is returned unchanged so callers can match on it.
func Do(ctx context.Context, c Change, call func(ctx context.Context) error) error {
	if c.Apply != nil {
		if err := c.Apply(); err != nil {
			return err
		}
	}
	if err := call(ctx); err != nil {
		if c.Rollback != nil {
			c.Rollback()
		}
		return err
	}
	if c.Commit != nil {
		c.Commit()
	}
	return nil
}
