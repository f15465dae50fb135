package makerchecker

import (
	"context"
	"time"

	"makerchecker-backend/models"
)

// Store is the persistence the engine needs. database.RequestStore
// implements it.
type Store interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Insert creates req unless guard is set and a pending request matches
	// it; the check and insert are atomic. It reports whether req was created.
	Insert(ctx context.Context, req *models.Request, guard *models.Fingerprint) (bool, error)
	Exists(ctx context.Context, fp models.Fingerprint) (bool, error)
	Find(ctx context.Context, id uint) (*models.Request, error)
	FindByCode(ctx context.Context, code string) (*models.Request, error)
	// Transition is a compare-and-swap on status: the row is written only if
	// its stored status is still from.
	Transition(ctx context.Context, req *models.Request, from models.RequestStatus) (bool, error)
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}
