package rbac

// Outcome tags the result of a permission check so call sites can choose
// fail-open vs fail-closed when the lookup itself failed, instead of the
// choice being baked into error handling.
type Outcome int

const (
	// Granted: the effective set allows the action.
	Granted Outcome = iota
	// Denied: the effective set was resolved and does not allow the action.
	Denied
	// Degraded: the caller's permissions could not be resolved (store
	// unreachable, for example); neither a grant nor a proven denial.
	Degraded
)

// Decision is a tagged permission-check result.
type Decision struct {
	Outcome  Outcome
	Resource Resource
	Action   Action
	Err      error // set when Outcome is Degraded
}

// Decide evaluates the check and tags the result.
func (e Effective) Decide(resource Resource, action Action) Decision {
	d := Decision{Resource: resource, Action: action}
	if e.Allow(resource, action) {
		d.Outcome = Granted
	} else {
		d.Outcome = Denied
	}
	return d
}

// DegradedDecision records a failed permission lookup for the given check.
func DegradedDecision(resource Resource, action Action, err error) Decision {
	return Decision{Outcome: Degraded, Resource: resource, Action: action, Err: err}
}
