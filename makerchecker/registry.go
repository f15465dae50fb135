package makerchecker

import (
	"context"
	"fmt"
	"sync"

	"makerchecker-backend/models"
)

// Executable is an action that runs when a request is approved. Built-in
// create/update/delete actions and user-registered executables share it.
type Executable interface {
	Execute(ctx context.Context, req *models.Request) error
	// UniqueBy names the payload fields compared for duplicates unless the
	// builder overrides them.
	UniqueBy() []string
	BeforeApproval(ctx context.Context, req *models.Request) error
	AfterApproval(ctx context.Context, req *models.Request) error
	BeforeRejection(ctx context.Context, req *models.Request) error
	AfterRejection(ctx context.Context, req *models.Request) error
	OnFailure(ctx context.Context, req *models.Request, cause error) error
}

// BaseExecutable provides no-op hooks and no unique fields. Embed it and
// implement Execute.
type BaseExecutable struct{}

func (BaseExecutable) UniqueBy() []string                                      { return nil }
func (BaseExecutable) BeforeApproval(context.Context, *models.Request) error   { return nil }
func (BaseExecutable) AfterApproval(context.Context, *models.Request) error    { return nil }
func (BaseExecutable) BeforeRejection(context.Context, *models.Request) error  { return nil }
func (BaseExecutable) AfterRejection(context.Context, *models.Request) error   { return nil }
func (BaseExecutable) OnFailure(context.Context, *models.Request, error) error { return nil }

// EntityHandler performs create/update/delete for one subject type.
type EntityHandler interface {
	Create(ctx context.Context, payload map[string]any) error
	Update(ctx context.Context, key string, changes map[string]any) error
	Delete(ctx context.Context, key string) error
}

// HookFunc is a named lifecycle callback. cause is only set for on_failure.
type HookFunc func(ctx context.Context, req *models.Request, cause error) error

// Registry resolves requests to the logic that fulfils them.
type Registry struct {
	mu          sync.RWMutex
	entities    map[string]EntityHandler
	executables map[string]Executable
	hooks       map[string]HookFunc
}

func NewRegistry() *Registry {
	return &Registry{
		entities:    map[string]EntityHandler{},
		executables: map[string]Executable{},
		hooks:       map[string]HookFunc{},
	}
}

func (r *Registry) RegisterEntity(subjectType string, h EntityHandler) {
	if subjectType == "" || h == nil {
		panic("makerchecker: entity registration needs a type and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[subjectType] = h
}

func (r *Registry) RegisterExecutable(ref string, e Executable) {
	if ref == "" || e == nil {
		panic("makerchecker: executable registration needs a name and an implementation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executables[ref] = e
}

// RegisterHook binds name to fn. Requests store the name, so the same name
// must be registered again after a restart.
func (r *Registry) RegisterHook(name string, fn HookFunc) {
	if name == "" || fn == nil {
		panic("makerchecker: hook registration needs a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = fn
}

func (r *Registry) HasEntity(subjectType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[subjectType]
	return ok
}

func (r *Registry) Executable(ref string) (Executable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executables[ref]
	return e, ok
}

func (r *Registry) Hook(name string) (HookFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.hooks[name]
	return fn, ok
}

// Resolve returns the action for req.
func (r *Registry) Resolve(req *models.Request) (Executable, error) {
	op, err := req.Operation()
	if err != nil {
		return nil, newError(KindInvalidRequestModel, err, "invalid request %s", req.Code)
	}

	switch o := op.(type) {
	case models.ExecuteOp:
		e, ok := r.Executable(o.Ref)
		if !ok {
			return nil, newError(KindUnresolvableAction, nil, "no executable registered as %q", o.Ref)
		}
		return e, nil
	case models.CreateOp:
		return r.crud(o.SubjectType, o)
	case models.UpdateOp:
		return r.crud(o.Subject.Type, o)
	case models.DeleteOp:
		return r.crud(o.Subject.Type, o)
	}
	return nil, newError(KindInvalidRequestModel, nil, "unsupported operation %T", op)
}

func (r *Registry) crud(subjectType string, op models.Operation) (Executable, error) {
	r.mu.RLock()
	h, ok := r.entities[subjectType]
	r.mu.RUnlock()
	if !ok {
		return nil, newError(KindUnresolvableAction, nil, "no entity registered as %q", subjectType)
	}
	return crudAction{handler: h, op: op}, nil
}

// crudAction adapts an EntityHandler to Executable.
type crudAction struct {
	BaseExecutable
	handler EntityHandler
	op      models.Operation
}

func (a crudAction) Execute(ctx context.Context, _ *models.Request) error {
	switch o := a.op.(type) {
	case models.CreateOp:
		return a.handler.Create(ctx, o.Payload)
	case models.UpdateOp:
		return a.handler.Update(ctx, o.Subject.Key, o.Changes)
	case models.DeleteOp:
		return a.handler.Delete(ctx, o.Subject.Key)
	}
	return fmt.Errorf("crud action cannot run %s requests", a.op.Type())
}
