package makerchecker

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"makerchecker-backend/events"
	"makerchecker-backend/models"
)

// Manager drives requests through their lifecycle:
//
//	pending -> approved            (mutation succeeded)
//	pending -> approved -> failed  (mutation or before_approval failed)
//	pending -> processing -> rejected
//	pending -> processing -> failed (before_rejection or the rejected write failed)
//	pending -> expired
type Manager struct {
	store      Store
	registry   *Registry
	uniqueness *Uniqueness
	opts       Options
	log        logrus.FieldLogger
	bus        events.Bus
	now        func() time.Time
}

func New(store Store, registry *Registry, opts Options, options ...Option) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	opts.Makers = append([]string(nil), opts.Makers...)
	opts.Checkers = append([]string(nil), opts.Checkers...)

	m := &Manager{
		store:      store,
		registry:   registry,
		uniqueness: NewUniqueness(store),
		opts:       opts,
		now:        time.Now,
	}
	for _, o := range options {
		o(m)
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.bus == nil {
		m.bus = events.NewBus(m.log)
	}
	return m
}

// Options returns the configuration the manager was built with.
func (m *Manager) Options() Options {
	return m.opts
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Uniqueness() *Uniqueness {
	return m.uniqueness
}

// Listen subscribes l to lifecycle events of kind.
func (m *Manager) Listen(kind events.Kind, l events.Listener) {
	m.bus.Listen(kind, l)
}

// Request starts a new request.
func (m *Manager) Request() *RequestBuilder {
	return newRequestBuilder(m)
}

func (m *Manager) RequestToCreate(subjectType string, payload map[string]any) *RequestBuilder {
	return m.Request().ToCreate(subjectType, payload)
}

func (m *Manager) RequestToUpdate(subject models.Morph, changes map[string]any) *RequestBuilder {
	return m.Request().ToUpdate(subject, changes)
}

func (m *Manager) RequestToDelete(subject models.Morph) *RequestBuilder {
	return m.Request().ToDelete(subject)
}

// Approve checks req on behalf of checker and runs its action. On a
// processing failure the failed request is returned together with an error
// of kind KindRequestProcessingFailed.
func (m *Manager) Approve(ctx context.Context, req *models.Request, checker models.Morph, remarks string) (*models.Request, error) {
	if err := m.assertCheckable(req, checker); err != nil {
		return nil, err
	}
	action, err := m.registry.Resolve(req)
	if err != nil {
		return nil, err
	}

	approved := m.checked(req, checker, remarks, models.StatusApproved)
	if err := m.transition(ctx, approved, models.StatusPending); err != nil {
		return nil, err
	}
	log := m.requestLog(approved)

	if err := m.invokeHook(ctx, models.HookBeforeApproval, approved, action, nil); err != nil {
		return m.fail(ctx, approved, action, err)
	}
	if err := m.execute(ctx, approved, action); err != nil {
		return m.fail(ctx, approved, action, err)
	}

	if err := m.invokeHook(ctx, models.HookAfterApproval, approved, action, nil); err != nil {
		log.WithError(err).Warn("after_approval hook failed")
	}
	m.bus.Emit(events.Event{Kind: events.Approved, Request: *approved.Clone()})
	log.WithField("checker", approved.Checker).Info("request approved")

	return approved, nil
}

// Reject checks req on behalf of checker without running its action.
func (m *Manager) Reject(ctx context.Context, req *models.Request, checker models.Morph, remarks string) (*models.Request, error) {
	if err := m.assertCheckable(req, checker); err != nil {
		return nil, err
	}
	// Hooks fall back to the action's methods; an unresolvable action must
	// not prevent a rejection.
	action, err := m.registry.Resolve(req)
	if err != nil {
		m.requestLog(req).WithError(err).Debug("rejecting request without a resolvable action")
		action = nil
	}

	processing := m.checked(req, checker, remarks, models.StatusProcessing)
	if err := m.transition(ctx, processing, models.StatusPending); err != nil {
		return nil, err
	}
	log := m.requestLog(processing)

	if err := m.invokeHook(ctx, models.HookBeforeRejection, processing, action, nil); err != nil {
		return m.fail(ctx, processing, action, err)
	}

	rejected := processing.Clone()
	rejected.Status = models.StatusRejected
	if err := m.transition(ctx, rejected, models.StatusProcessing); err != nil {
		return m.fail(ctx, processing, action, err)
	}

	if err := m.invokeHook(ctx, models.HookAfterRejection, rejected, action, nil); err != nil {
		log.WithError(err).Warn("after_rejection hook failed")
	}
	m.bus.Emit(events.Event{Kind: events.Rejected, Request: *rejected.Clone()})
	log.WithField("checker", rejected.Checker).Info("request rejected")

	return rejected, nil
}

// assertCheckable is the gate shared by Approve and Reject. It never writes.
func (m *Manager) assertCheckable(req *models.Request, checker models.Morph) error {
	if checker == nil {
		return newError(KindCheckerNotPermitted, nil, "a checker is required")
	}
	if !m.opts.canCheck(checker.MorphType()) {
		return newError(KindCheckerNotPermitted, nil, "%s is not allowed to check requests", checker.MorphType())
	}
	if req == nil || req.ID == 0 {
		return newError(KindInvalidRequestModel, nil, "request has not been persisted")
	}
	if !req.IsPending() {
		return notCheckable("request is not pending")
	}
	if m.isExpired(req) {
		return notCheckable("request has expired")
	}
	if req.Maker.Is(checker) {
		return notCheckable("a request cannot be checked by its maker")
	}
	return nil
}

func (m *Manager) isExpired(req *models.Request) bool {
	window := m.opts.RequestExpiration
	return window > 0 && m.now().Sub(req.MadeAt) > window
}

func (m *Manager) checked(req *models.Request, checker models.Morph, remarks string, status models.RequestStatus) *models.Request {
	at := m.now().UTC()
	next := req.Clone()
	next.Status = status
	next.Checker = models.ActorOf(checker)
	next.CheckedAt = &at
	next.Remarks = remarks
	return next
}

// transition persists req if its stored status is still from. Losing the
// race reports the request as not checkable.
func (m *Manager) transition(ctx context.Context, req *models.Request, from models.RequestStatus) error {
	ok, err := m.store.Transition(ctx, req, from)
	if err != nil {
		return errors.Wrapf(err, "update request %s", req.Code)
	}
	if !ok {
		return notCheckable(fmt.Sprintf("request is no longer %s", from))
	}
	return nil
}

// execute runs action in a transaction so a failed mutation leaves nothing
// behind.
func (m *Manager) execute(ctx context.Context, req *models.Request, action Executable) error {
	return m.store.Transaction(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("action panicked: %v", r)
			}
		}()
		if err := action.Execute(ctx, req); err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
}

// fail moves req from its current status to failed, runs on_failure and
// emits Failed. The returned error wraps cause. When the failed status cannot
// be written, the request is returned with its last stored status and the
// error wraps the store error too.
func (m *Manager) fail(ctx context.Context, req *models.Request, action Executable, cause error) (*models.Request, error) {
	from := req.Status
	failed := req.Clone()
	failed.Status = models.StatusFailed
	failed.FailureDetail = fmt.Sprintf("%+v", cause)

	log := m.requestLog(failed).WithError(cause)
	result, err := failed, cause
	if recErr := m.transition(ctx, failed, from); recErr != nil {
		log.WithField("store_error", recErr.Error()).Error("could not record request failure")
		result = req.Clone()
		err = fmt.Errorf("%w; request left %s: %w", cause, from, recErr)
	}

	if hookErr := m.invokeHook(ctx, models.HookOnFailure, result, action, cause); hookErr != nil {
		log.WithField("hook_error", hookErr.Error()).Warn("on_failure hook failed")
	}
	m.bus.Emit(events.Event{Kind: events.Failed, Request: *result.Clone(), Err: err})
	log.Error("request processing failed")

	return result, &Error{Kind: KindRequestProcessingFailed, Msg: "request processing failed", Err: err}
}

func (m *Manager) requestLog(req *models.Request) logrus.FieldLogger {
	return m.log.WithFields(logrus.Fields{
		"request_code": req.Code,
		"request_type": req.Type,
		"status":       req.Status,
	})
}
