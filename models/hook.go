package models

// Hook names a lifecycle point a callback can be bound to.
type Hook string

const (
	HookOnInitiated     Hook = "on_initiated"
	HookBeforeApproval  Hook = "before_approval"
	HookAfterApproval   Hook = "after_approval"
	HookBeforeRejection Hook = "before_rejection"
	HookAfterRejection  Hook = "after_rejection"
	HookOnFailure       Hook = "on_failure"
)

var hooks = []Hook{
	HookOnInitiated,
	HookBeforeApproval,
	HookAfterApproval,
	HookBeforeRejection,
	HookAfterRejection,
	HookOnFailure,
}

// Hooks lists every recognised hook kind.
func Hooks() []Hook {
	out := make([]Hook, len(hooks))
	copy(out, hooks)
	return out
}

func (h Hook) Valid() bool {
	for _, known := range hooks {
		if h == known {
			return true
		}
	}
	return false
}
