package database

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"reflect"
	"regexp"
	"time"

	"makerchecker-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestStore persists maker-checker requests.
type RequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

// RequestFilter narrows List results. Zero values are ignored.
type RequestFilter struct {
	Status models.RequestStatus
	Type   models.RequestType
	Maker  *models.Actor
	Limit  int
	Offset int
}

func (s *RequestStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return Transaction(ctx, s.db, fn)
}

// Insert creates req. When guard is set, the existence check for an equivalent
// pending request and the insert run in one transaction; on postgres an
// advisory lock on the guard identity serialises concurrent admissions.
// It reports false, without inserting, when a duplicate exists.
func (s *RequestStore) Insert(ctx context.Context, req *models.Request, guard *models.Fingerprint) (bool, error) {
	req.Fingerprint = models.IdentityOf(req)
	if guard == nil {
		if err := Conn(ctx, s.db).Create(req).Error; err != nil {
			return false, fmt.Errorf("insert request: %w", err)
		}
		return true, nil
	}

	inserted := false
	err := s.Transaction(ctx, func(ctx context.Context) error {
		tx := Conn(ctx, s.db)
		if isPostgres(tx) {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", lockKey(guard.Identity())).Error; err != nil {
				return fmt.Errorf("lock fingerprint: %w", err)
			}
		}
		exists, err := s.exists(tx, *guard)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// Exists reports whether a pending request matches fp.
func (s *RequestStore) Exists(ctx context.Context, fp models.Fingerprint) (bool, error) {
	return s.exists(Conn(ctx, s.db), fp)
}

func (s *RequestStore) exists(conn *gorm.DB, fp models.Fingerprint) (bool, error) {
	q := conn.Model(&models.Request{}).
		Select("id", "payload").
		Where("status = ?", models.StatusPending).
		Where("fingerprint = ?", fp.Identity()).
		Where("type = ?", fp.Type)
	q = whereNullable(q, "subject_type", fp.SubjectType)
	q = whereNullable(q, "subject_id", fp.SubjectID)
	q = whereNullable(q, "executable", fp.Executable)

	// Scalars under plain keys are compared in SQL. Nested values, nulls and
	// keys that a JSON path would misread (such as "acct.no") are compared on
	// the narrowed candidates below.
	deferred := map[string]any{}
	for key, value := range fp.Fields {
		if isScalar(value) && plainKey.MatchString(key) {
			q = q.Where(datatypes.JSONQuery("payload").Equals(value, key))
			continue
		}
		deferred[key] = value
	}

	var candidates []models.Request
	if len(deferred) == 0 {
		q = q.Limit(1)
	}
	if err := q.Find(&candidates).Error; err != nil {
		return false, fmt.Errorf("query pending requests: %w", err)
	}
	for _, c := range candidates {
		if payloadMatches(c.Payload, deferred) {
			return true, nil
		}
	}
	return false, nil
}

func (s *RequestStore) Find(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	if err := Conn(ctx, s.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find request %d: %w", id, err)
	}
	return &req, nil
}

func (s *RequestStore) FindByCode(ctx context.Context, code string) (*models.Request, error) {
	var req models.Request
	if err := Conn(ctx, s.db).First(&req, "code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("find request %s: %w", code, err)
	}
	return &req, nil
}

// Transition writes the status and check columns of req only if the stored
// status still equals from. It reports whether the row was updated.
func (s *RequestStore) Transition(ctx context.Context, req *models.Request, from models.RequestStatus) (bool, error) {
	res := Conn(ctx, s.db).Model(&models.Request{}).
		Where("id = ? AND status = ?", req.ID, from).
		Updates(map[string]any{
			"status":         req.Status,
			"checker_type":   req.Checker.Type,
			"checker_id":     req.Checker.ID,
			"checked_at":     req.CheckedAt,
			"remarks":        req.Remarks,
			"failure_detail": req.FailureDetail,
		})
	if res.Error != nil {
		return false, fmt.Errorf("transition request %s to %s: %w", req.Code, req.Status, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ExpirePending marks every pending request made before cutoff as expired.
func (s *RequestStore) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res := Conn(ctx, s.db).Model(&models.Request{}).
		Where("status = ? AND made_at < ?", models.StatusPending, cutoff).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire pending requests: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *RequestStore) List(ctx context.Context, f RequestFilter) ([]models.Request, error) {
	q := Conn(ctx, s.db).Model(&models.Request{}).Order("id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Maker != nil {
		q = q.Where("maker_type = ? AND maker_id = ?", f.Maker.Type, f.Maker.ID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Request
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func whereNullable(q *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *value)
}

// plainKey matches field names that are safe as a single JSON path segment.
var plainKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// payloadMatches compares values after a JSON round trip so that, for
// example, int 5 and float64 5 are equal. A null value only matches a key
// that is present and null.
func payloadMatches(payload datatypes.JSONMap, want map[string]any) bool {
	for key, value := range want {
		got, ok := payload[key]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(normalize(got), normalize(value)) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func lockKey(identity string) int64 {
	h := fnv.New64a()
	h.Write([]byte(identity))
	return int64(h.Sum64())
}
