package makerchecker

import (
	"context"

	"github.com/pkg/errors"
)

// ExpireOverdue marks every pending request older than the expiration window
// as expired. No hooks run and no events are emitted. Without a window it
// returns ErrExpirationNotConfigured, which callers may treat as a no-op.
func (m *Manager) ExpireOverdue(ctx context.Context) (int64, error) {
	window := m.opts.RequestExpiration
	if window <= 0 {
		return 0, newError(KindExpirationNotConfigured, nil, "request expiration is not configured")
	}

	cutoff := m.now().UTC().Add(-window)
	n, err := m.store.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "expire overdue requests")
	}
	m.log.WithField("count", n).WithField("cutoff", cutoff).Info("expired overdue requests")
	return n, nil
}
