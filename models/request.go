package models

import (
	"time"

	"gorm.io/datatypes"
)

type RequestType string

const (
	TypeCreate  RequestType = "create"
	TypeUpdate  RequestType = "update"
	TypeDelete  RequestType = "delete"
	TypeExecute RequestType = "execute"
)

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusExpired    RequestStatus = "expired"
	StatusFailed     RequestStatus = "failed"
)

// Metadata is stored alongside a request. Hooks maps a hook kind to the name
// of a callback registered with the action registry.
type Metadata struct {
	Hooks    map[Hook]string `json:"hooks,omitempty"`
	UniqueBy []string        `json:"unique_by,omitempty"`
}

// Request is the persisted record of a proposed mutation.
type Request struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Code        string        `json:"code" gorm:"size:36;not null;uniqueIndex"`
	Type        RequestType   `json:"type" gorm:"type:VARCHAR(16);not null;index:idx_requests_type_status,priority:1"`
	Status      RequestStatus `json:"status" gorm:"type:VARCHAR(16);not null;index:idx_requests_type_status,priority:2"`
	SubjectType *string       `json:"subject_type" gorm:"size:64"`
	SubjectID   *string       `json:"subject_id" gorm:"size:64"`
	Executable  *string       `json:"executable" gorm:"size:128"`
	Fingerprint string        `json:"-" gorm:"size:64;index"`

	Payload  datatypes.JSONMap            `json:"payload"`
	Metadata datatypes.JSONType[Metadata] `json:"metadata"`

	Maker   Actor `json:"maker" gorm:"embedded;embeddedPrefix:maker_"`
	Checker Actor `json:"checker" gorm:"embedded;embeddedPrefix:checker_"`

	Description   string `json:"description"`
	Remarks       string `json:"remarks"`
	FailureDetail string `json:"failure_detail,omitempty" gorm:"type:text"`

	MadeAt    time.Time  `json:"made_at" gorm:"not null;index"`
	CheckedAt *time.Time `json:"checked_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Request) IsPending() bool    { return r.IsOfStatus(StatusPending) }
func (r *Request) IsProcessing() bool { return r.IsOfStatus(StatusProcessing) }
func (r *Request) IsApproved() bool   { return r.IsOfStatus(StatusApproved) }
func (r *Request) IsRejected() bool   { return r.IsOfStatus(StatusRejected) }
func (r *Request) IsExpired() bool    { return r.IsOfStatus(StatusExpired) }
func (r *Request) IsFailed() bool     { return r.IsOfStatus(StatusFailed) }

func (r *Request) IsOfStatus(status RequestStatus) bool {
	return r.Status == status
}

func (r *Request) IsOfType(t RequestType) bool {
	return r.Type == t
}

// Subject returns the targeted entity for update and delete requests.
func (r *Request) Subject() (Ref, bool) {
	if r.SubjectType == nil || r.SubjectID == nil {
		return Ref{}, false
	}
	return Ref{Type: *r.SubjectType, Key: *r.SubjectID}, true
}

// HookName returns the callback name registered for kind, if any.
func (r *Request) HookName(kind Hook) string {
	return r.Metadata.Data().Hooks[kind]
}

// Clone returns a copy that does not share the payload map with r.
func (r *Request) Clone() *Request {
	c := *r
	if r.Payload != nil {
		c.Payload = make(datatypes.JSONMap, len(r.Payload))
		for k, v := range r.Payload {
			c.Payload[k] = v
		}
	}
	if r.CheckedAt != nil {
		t := *r.CheckedAt
		c.CheckedAt = &t
	}
	return &c
}
