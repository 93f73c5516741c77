package rbac

import (
	"encoding/json"
	"log"

	"adminhub/internal/model"
)

// Effective is the union, across every role a user holds, of per-resource
// action sets. Derived per request, never persisted.
type Effective map[Resource]ActionSet

// Resolve computes the user's effective permissions from their current
// roles. Union is commutative and idempotent, so role order does not
// matter. Zero roles yields the empty mapping (deny-all).
//
// A role whose stored permissions cannot be parsed contributes nothing:
// one corrupt role must never lock every feature for every user, so the
// anomaly is logged and skipped rather than surfaced as an error.
func Resolve(roles []model.Role) Effective {
	eff := make(Effective)
	for _, role := range roles {
		matrix, err := parseLenient(role.Permissions)
		if err != nil {
			log.Printf("rbac: role %q has malformed permissions, treating as empty: %v", role.Name, err)
			continue
		}
		for resource, actions := range matrix {
			set, ok := eff[resource]
			if !ok {
				set = make(ActionSet, len(actions))
				eff[resource] = set
			}
			for action := range actions {
				set[action] = struct{}{}
			}
		}
	}
	return eff
}

// parseLenient decodes stored role permissions tolerantly: a value that is
// not a JSON object at all fails (caller falls back to empty), while
// entries with unrecognized resource or action names are skipped with a
// log line instead of rejecting the whole role.
func parseLenient(raw string) (Matrix, error) {
	if raw == "" {
		return Matrix{}, nil
	}

	var decoded map[string][]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}

	m := make(Matrix, len(decoded))
	for res, actions := range decoded {
		resource, ok := ParseResource(res)
		if !ok {
			log.Printf("rbac: skipping unknown resource %q in stored permissions", res)
			continue
		}
		set := make(ActionSet, len(actions))
		for _, act := range actions {
			action, ok := ParseAction(act)
			if !ok {
				log.Printf("rbac: skipping unknown action %q for resource %q", act, res)
				continue
			}
			set[action] = struct{}{}
		}
		if len(set) > 0 {
			m[resource] = set
		}
	}
	return m, nil
}

// Allow reports whether the effective set grants the action on the
// resource. Grant iff any of the following holds:
//
//  1. the exact action is present for the resource,
//  2. "manage" is present for the resource,
//  3. "manage" is present under the reserved "all" resource.
//
// Note the deliberate asymmetry: "all" carries no other global grant —
// holding all:[view] does NOT grant view everywhere. Only all:manage is a
// true wildcard.
func (e Effective) Allow(resource Resource, action Action) bool {
	if set, ok := e[resource]; ok {
		if set.Contains(action) || set.Contains(ActionManage) {
			return true
		}
	}
	if set, ok := e[ResourceAll]; ok && set.Contains(ActionManage) {
		return true
	}
	return false
}

// IsAdmin reports whether the effective set carries the all:manage
// super-scope.
func (e Effective) IsAdmin() bool {
	set, ok := e[ResourceAll]
	return ok && set.Contains(ActionManage)
}

// MarshalJSON serializes the effective set in the same
// {"resource":["action",...]} shape as a stored matrix.
func (e Effective) MarshalJSON() ([]byte, error) {
	return Matrix(e).MarshalJSON()
}
