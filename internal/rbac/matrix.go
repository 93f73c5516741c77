package rbac

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Action is a closed enumeration of operations a role can grant.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage implies every other action on the same resource.
	ActionManage Action = "manage"
)

// Resource is a closed enumeration of protected resource names.
type Resource string

const (
	ResourceCategories Resource = "categories"
	ResourceUsers      Resource = "users"
	ResourceRoles      Resource = "roles"
	ResourcePosts      Resource = "posts"
	ResourceSettings   Resource = "settings"
	ResourceBackups    Resource = "backups"
	ResourceActivity   Resource = "activity"
	// ResourceAll is the reserved super-scope: only its "manage" action
	// bypasses per-resource checks.
	ResourceAll Resource = "all"
)

var validActions = map[Action]struct{}{
	ActionView:   {},
	ActionCreate: {},
	ActionUpdate: {},
	ActionDelete: {},
	ActionManage: {},
}

var validResources = map[Resource]struct{}{
	ResourceCategories: {},
	ResourceUsers:      {},
	ResourceRoles:      {},
	ResourcePosts:      {},
	ResourceSettings:   {},
	ResourceBackups:    {},
	ResourceActivity:   {},
	ResourceAll:        {},
}

// ParseAction validates an action name loaded from stored role data.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := validActions[a]
	return a, ok
}

// ParseResource validates a resource name loaded from stored role data.
func ParseResource(s string) (Resource, bool) {
	r := Resource(s)
	_, ok := validResources[r]
	return r, ok
}

// ActionSet is a duplicate-free set of granted actions.
type ActionSet map[Action]struct{}

// Contains reports whether the action is in the set.
func (s ActionSet) Contains(a Action) bool {
	_, ok := s[a]
	return ok
}

// Actions returns the set's members sorted for stable serialization.
func (s ActionSet) Actions() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Matrix maps each resource to the set of actions a role grants on it.
// An absent entry means no grant.
type Matrix map[Resource]ActionSet

// ParseMatrix decodes a stored permissions value strictly: the raw value
// must be a JSON object of resource→action-list pairs and every name must
// belong to the closed enumerations. Used at the boundary where role data
// is saved, so typos surface immediately instead of silently granting
// nothing at check time.
func ParseMatrix(raw string) (Matrix, error) {
	if raw == "" {
		return Matrix{}, nil
	}

	var decoded map[string][]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("permissions is not a resource→actions object: %w", err)
	}

	m := make(Matrix, len(decoded))
	for res, actions := range decoded {
		resource, ok := ParseResource(res)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", res)
		}
		set := make(ActionSet, len(actions))
		for _, act := range actions {
			action, ok := ParseAction(act)
			if !ok {
				return nil, fmt.Errorf("unknown action %q for resource %q", act, res)
			}
			set[action] = struct{}{}
		}
		if len(set) > 0 {
			m[resource] = set
		}
	}
	return m, nil
}

// MarshalJSON serializes the matrix back to the stored
// {"resource":["action",...]} shape.
func (m Matrix) MarshalJSON() ([]byte, error) {
	out := make(map[Resource][]Action, len(m))
	for res, set := range m {
		out[res] = set.Actions()
	}
	return json.Marshal(out)
}
