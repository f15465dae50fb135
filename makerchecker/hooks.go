package makerchecker

import (
	"context"

	"github.com/pkg/errors"

	"makerchecker-backend/models"
)

// invokeHook runs the callback bound to kind. A name stored on the request
// takes precedence; otherwise the matching method of action runs. action may
// be nil, in which case only named hooks fire. Panics become errors.
func (m *Manager) invokeHook(ctx context.Context, kind models.Hook, req *models.Request, action Executable, cause error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s hook panicked: %v", kind, r)
		}
	}()

	if name := req.HookName(kind); name != "" {
		fn, ok := m.registry.Hook(name)
		if !ok {
			return newError(KindUnresolvableAction, nil, "no hook registered as %q", name)
		}
		return fn(ctx, req, cause)
	}
	if action == nil {
		return nil
	}

	switch kind {
	case models.HookBeforeApproval:
		return action.BeforeApproval(ctx, req)
	case models.HookAfterApproval:
		return action.AfterApproval(ctx, req)
	case models.HookBeforeRejection:
		return action.BeforeRejection(ctx, req)
	case models.HookAfterRejection:
		return action.AfterRejection(ctx, req)
	case models.HookOnFailure:
		return action.OnFailure(ctx, req, cause)
	}
	return nil
}
