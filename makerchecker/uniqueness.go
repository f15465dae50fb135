package makerchecker

import (
	"context"

	"makerchecker-backend/models"
)

// Uniqueness decides whether an equivalent pending request already exists.
type Uniqueness struct {
	store Store
}

func NewUniqueness(store Store) *Uniqueness {
	return &Uniqueness{store: store}
}

// Fingerprint builds the comparison key for req. Only the uniqueBy fields
// present in the payload are compared; when none are present the whole
// payload is.
func (u *Uniqueness) Fingerprint(req *models.Request, uniqueBy []string) models.Fingerprint {
	fields := map[string]any{}
	for _, name := range uniqueBy {
		if v, ok := req.Payload[name]; ok {
			fields[name] = v
		}
	}
	if len(fields) == 0 {
		for k, v := range req.Payload {
			fields[k] = v
		}
	}
	return models.Fingerprint{
		Type:        req.Type,
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		Executable:  req.Executable,
		Fields:      fields,
	}
}

// Exists reports whether a pending request shares req's fingerprint.
// Admission does not call it directly: the builder hands the fingerprint to
// Store.Insert so the check and the write are atomic.
func (u *Uniqueness) Exists(ctx context.Context, req *models.Request, uniqueBy []string) (bool, error) {
	return u.store.Exists(ctx, u.Fingerprint(req, uniqueBy))
}
