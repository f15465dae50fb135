package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// Operation is the mutation a request proposes. Exactly one of CreateOp,
// UpdateOp, DeleteOp or ExecuteOp.
type Operation interface {
	Type() RequestType
	// Apply writes the operation onto the flat columns of r.
	Apply(r *Request)
	// Describe is used when no description was supplied.
	Describe() string
}

type CreateOp struct {
	SubjectType string
	Payload     map[string]any
}

type UpdateOp struct {
	Subject Ref
	Changes map[string]any
}

type DeleteOp struct {
	Subject Ref
}

type ExecuteOp struct {
	Ref     string
	Payload map[string]any
}

func (CreateOp) Type() RequestType  { return TypeCreate }
func (UpdateOp) Type() RequestType  { return TypeUpdate }
func (DeleteOp) Type() RequestType  { return TypeDelete }
func (ExecuteOp) Type() RequestType { return TypeExecute }

func (o CreateOp) Apply(r *Request) {
	r.Type = TypeCreate
	r.SubjectType = strPtr(o.SubjectType)
	r.SubjectID = nil
	r.Executable = nil
	r.Payload = toJSONMap(o.Payload)
}

func (o UpdateOp) Apply(r *Request) {
	r.Type = TypeUpdate
	r.SubjectType = strPtr(o.Subject.Type)
	r.SubjectID = strPtr(o.Subject.Key)
	r.Executable = nil
	r.Payload = toJSONMap(o.Changes)
}

func (o DeleteOp) Apply(r *Request) {
	r.Type = TypeDelete
	r.SubjectType = strPtr(o.Subject.Type)
	r.SubjectID = strPtr(o.Subject.Key)
	r.Executable = nil
	r.Payload = datatypes.JSONMap{}
}

func (o ExecuteOp) Apply(r *Request) {
	r.Type = TypeExecute
	r.SubjectType = nil
	r.SubjectID = nil
	r.Executable = strPtr(o.Ref)
	r.Payload = toJSONMap(o.Payload)
}

func (o CreateOp) Describe() string {
	return fmt.Sprintf("New create request for %s", o.SubjectType)
}

func (o UpdateOp) Describe() string {
	return fmt.Sprintf("New update request for %s %s", o.Subject.Type, o.Subject.Key)
}

func (o DeleteOp) Describe() string {
	return fmt.Sprintf("New delete request for %s %s", o.Subject.Type, o.Subject.Key)
}

func (o ExecuteOp) Describe() string {
	return fmt.Sprintf("New execute request for %s", o.Ref)
}

// Operation rebuilds the variant from the stored columns.
func (r *Request) Operation() (Operation, error) {
	payload := map[string]any(r.Payload)
	switch r.Type {
	case TypeCreate:
		if r.SubjectType == nil {
			return nil, fmt.Errorf("create request %s has no subject type", r.Code)
		}
		return CreateOp{SubjectType: *r.SubjectType, Payload: payload}, nil
	case TypeUpdate, TypeDelete:
		subject, ok := r.Subject()
		if !ok {
			return nil, fmt.Errorf("%s request %s has no subject", r.Type, r.Code)
		}
		if r.Type == TypeDelete {
			return DeleteOp{Subject: subject}, nil
		}
		return UpdateOp{Subject: subject, Changes: payload}, nil
	case TypeExecute:
		if r.Executable == nil {
			return nil, fmt.Errorf("execute request %s has no executable", r.Code)
		}
		return ExecuteOp{Ref: *r.Executable, Payload: payload}, nil
	}
	return nil, fmt.Errorf("unknown request type %q", r.Type)
}

func toJSONMap(in map[string]any) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
