package makerchecker

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"makerchecker-backend/events"
	"makerchecker-backend/models"
)

// RequestBuilder assembles a new request. Methods can be chained; the first
// error is kept and returned by Finalize. A builder is reset after every
// Finalize and can be reused.
type RequestBuilder struct {
	m *Manager

	op          models.Operation
	maker       *models.Actor
	description string
	uniqueBy    []string
	hooks       map[models.Hook]string
	err         error
}

func newRequestBuilder(m *Manager) *RequestBuilder {
	b := &RequestBuilder{m: m}
	b.reset()
	return b
}

func (b *RequestBuilder) reset() {
	b.op = nil
	b.maker = nil
	b.description = ""
	b.uniqueBy = nil
	b.hooks = map[models.Hook]string{}
	b.err = nil
}

// Err returns the first error recorded so far.
func (b *RequestBuilder) Err() error {
	return b.err
}

func (b *RequestBuilder) fail(err error) *RequestBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// MadeBy records the actor proposing the request.
func (b *RequestBuilder) MadeBy(maker models.Morph) *RequestBuilder {
	if maker == nil {
		return b.fail(newError(KindRequestNotInitiated, nil, "a maker is required"))
	}
	if !b.m.opts.canMake(maker.MorphType()) {
		return b.fail(newError(KindActorNotPermitted, nil, "cannot initiate request: %s is not allowed to make requests", maker.MorphType()))
	}
	actor := models.ActorOf(maker)
	b.maker = &actor
	return b
}

func (b *RequestBuilder) ToCreate(subjectType string, payload map[string]any) *RequestBuilder {
	if !b.m.registry.HasEntity(subjectType) {
		return b.fail(newError(KindUnresolvableAction, nil, "unrecognized subject type %q", subjectType))
	}
	return b.setOperation(models.CreateOp{SubjectType: subjectType, Payload: payload})
}

func (b *RequestBuilder) ToUpdate(subject models.Morph, changes map[string]any) *RequestBuilder {
	if subject == nil {
		return b.fail(newError(KindRequestNotInitiated, nil, "a subject is required"))
	}
	if !b.m.registry.HasEntity(subject.MorphType()) {
		return b.fail(newError(KindUnresolvableAction, nil, "unrecognized subject type %q", subject.MorphType()))
	}
	return b.setOperation(models.UpdateOp{Subject: models.RefOf(subject), Changes: changes})
}

func (b *RequestBuilder) ToDelete(subject models.Morph) *RequestBuilder {
	if subject == nil {
		return b.fail(newError(KindRequestNotInitiated, nil, "a subject is required"))
	}
	if !b.m.registry.HasEntity(subject.MorphType()) {
		return b.fail(newError(KindUnresolvableAction, nil, "unrecognized subject type %q", subject.MorphType()))
	}
	return b.setOperation(models.DeleteOp{Subject: models.RefOf(subject)})
}

// ToExecute proposes running a registered executable. Its UniqueBy fields
// apply unless UniqueBy is called on the builder.
func (b *RequestBuilder) ToExecute(ref string, payload map[string]any) *RequestBuilder {
	e, ok := b.m.registry.Executable(ref)
	if !ok {
		return b.fail(newError(KindUnresolvableAction, nil, "no executable registered as %q", ref))
	}
	b.setOperation(models.ExecuteOp{Ref: ref, Payload: payload})
	if b.uniqueBy == nil {
		b.uniqueBy = e.UniqueBy()
	}
	return b
}

func (b *RequestBuilder) setOperation(op models.Operation) *RequestBuilder {
	if b.op != nil {
		return b.fail(newError(KindRequestTypeAlreadySet, nil, "cannot modify request type, a %s request type has already been provided", b.op.Type()))
	}
	b.op = op
	return b
}

// UniqueBy limits the duplicate check to the named payload fields.
func (b *RequestBuilder) UniqueBy(fields ...string) *RequestBuilder {
	b.uniqueBy = append([]string{}, fields...)
	return b
}

func (b *RequestBuilder) Description(text string) *RequestBuilder {
	b.description = text
	return b
}

// Hook binds a registered callback name to kind.
func (b *RequestBuilder) Hook(kind models.Hook, name string) *RequestBuilder {
	if !kind.Valid() {
		return b.fail(newError(KindInvalidHook, nil, "invalid hook %q", kind))
	}
	if _, ok := b.m.registry.Hook(name); !ok {
		return b.fail(newError(KindUnresolvableAction, nil, "no hook registered as %q", name))
	}
	b.hooks[kind] = name
	return b
}

func (b *RequestBuilder) OnInitiated(name string) *RequestBuilder {
	return b.Hook(models.HookOnInitiated, name)
}

func (b *RequestBuilder) BeforeApproval(name string) *RequestBuilder {
	return b.Hook(models.HookBeforeApproval, name)
}

func (b *RequestBuilder) AfterApproval(name string) *RequestBuilder {
	return b.Hook(models.HookAfterApproval, name)
}

func (b *RequestBuilder) BeforeRejection(name string) *RequestBuilder {
	return b.Hook(models.HookBeforeRejection, name)
}

func (b *RequestBuilder) AfterRejection(name string) *RequestBuilder {
	return b.Hook(models.HookAfterRejection, name)
}

func (b *RequestBuilder) OnFailure(name string) *RequestBuilder {
	return b.Hook(models.HookOnFailure, name)
}

// Finalize validates and persists the request in pending status and emits
// an Initiated event.
func (b *RequestBuilder) Finalize(ctx context.Context) (*models.Request, error) {
	defer b.reset()

	if b.err != nil {
		return nil, b.err
	}
	if b.op == nil {
		return nil, newError(KindRequestNotInitiated, nil, "no request type provided")
	}
	if b.maker == nil {
		return nil, newError(KindRequestNotInitiated, nil, "no maker provided")
	}

	req := &models.Request{
		Code:   uuid.NewString(),
		Status: models.StatusPending,
		Maker:  *b.maker,
	}
	b.op.Apply(req)

	req.Description = b.description
	if req.Description == "" {
		req.Description = b.op.Describe()
	}
	req.Metadata = datatypes.NewJSONType(models.Metadata{Hooks: b.hooks, UniqueBy: b.uniqueBy})
	req.MadeAt = b.m.now().UTC()

	var guard *models.Fingerprint
	if b.m.opts.EnsureUnique {
		fp := b.m.uniqueness.Fingerprint(req, b.uniqueBy)
		guard = &fp
	}

	inserted, err := b.m.store.Insert(ctx, req, guard)
	if err != nil {
		return nil, newError(KindRequestNotInitiated, err, "error initiating request")
	}
	if !inserted {
		return nil, newError(KindDuplicateRequest, nil, "a pending request already exists to %s the provided resource", req.Type)
	}

	log := b.m.log.WithFields(logrus.Fields{"request_code": req.Code, "request_type": req.Type})
	if err := b.m.invokeHook(ctx, models.HookOnInitiated, req, nil, nil); err != nil {
		log.WithError(err).Warn("on_initiated hook failed")
	}
	b.m.bus.Emit(events.Event{Kind: events.Initiated, Request: *req.Clone()})
	log.Info("request initiated")

	return req, nil
}
