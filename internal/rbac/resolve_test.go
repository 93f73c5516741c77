package rbac

import (
	"testing"

	"adminhub/internal/model"
)

func role(name, permissions string) model.Role {
	return model.Role{Name: name, Permissions: permissions}
}

func TestResolveUnionAcrossRoles(t *testing.T) {
	editor := role("editor", `{"categories":["view","create","update"],"posts":["manage"]}`)
	analyst := role("analyst", `{"categories":["delete"],"activity":["view"]}`)

	eff := Resolve([]model.Role{editor, analyst})

	if !eff.Allow(ResourceCategories, ActionCreate) {
		t.Fatal("expected categories:create from editor role")
	}
	if !eff.Allow(ResourceCategories, ActionDelete) {
		t.Fatal("expected categories:delete from analyst role")
	}
	if !eff.Allow(ResourceActivity, ActionView) {
		t.Fatal("expected activity:view from analyst role")
	}
	if eff.Allow(ResourceUsers, ActionView) {
		t.Fatal("users:view was never granted")
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	a := role("a", `{"users":["view"]}`)
	b := role("b", `{"users":["update"],"roles":["view"]}`)

	forward := Resolve([]model.Role{a, b})
	reverse := Resolve([]model.Role{b, a})

	checks := []struct {
		resource Resource
		action   Action
	}{
		{ResourceUsers, ActionView},
		{ResourceUsers, ActionUpdate},
		{ResourceRoles, ActionView},
		{ResourceRoles, ActionUpdate},
		{ResourceSettings, ActionView},
	}
	for _, c := range checks {
		if forward.Allow(c.resource, c.action) != reverse.Allow(c.resource, c.action) {
			t.Fatalf("role order changed the answer for %s:%s", c.resource, c.action)
		}
	}
}

func TestResolveZeroRolesDeniesAll(t *testing.T) {
	eff := Resolve(nil)
	if eff.Allow(ResourceCategories, ActionView) {
		t.Fatal("empty permission set must deny")
	}
	if eff.IsAdmin() {
		t.Fatal("empty permission set must not be admin")
	}
}

func TestResolveSkipsCorruptRole(t *testing.T) {
	corrupt := role("broken", `not json at all`)
	good := role("viewer", `{"categories":["view"]}`)

	eff := Resolve([]model.Role{corrupt, good})

	if !eff.Allow(ResourceCategories, ActionView) {
		t.Fatal("healthy role must still contribute when another role is corrupt")
	}
	if eff.Allow(ResourceCategories, ActionDelete) {
		t.Fatal("corrupt role must contribute nothing")
	}
}

func TestResolveSkipsUnknownNames(t *testing.T) {
	eff := Resolve([]model.Role{role("mixed", `{"categories":["view","fly"],"widgets":["manage"]}`)})

	if !eff.Allow(ResourceCategories, ActionView) {
		t.Fatal("recognized entries must survive unknown siblings")
	}
	if len(eff) != 1 {
		t.Fatalf("unknown resource must be dropped, got %d resources", len(eff))
	}
}

func TestAllowManageImpliesAllActionsOnResource(t *testing.T) {
	eff := Resolve([]model.Role{role("catadmin", `{"categories":["manage"]}`)})

	for _, action := range []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionManage} {
		if !eff.Allow(ResourceCategories, action) {
			t.Fatalf("categories:manage must imply categories:%s", action)
		}
	}
	if eff.Allow(ResourceUsers, ActionView) {
		t.Fatal("manage on one resource must not leak to another")
	}
}

func TestAllowAllManageIsWildcard(t *testing.T) {
	eff := Resolve([]model.Role{role("admin", `{"all":["manage"]}`)})

	if !eff.Allow(ResourceBackups, ActionDelete) {
		t.Fatal("all:manage must grant every action on every resource")
	}
	if !eff.IsAdmin() {
		t.Fatal("all:manage must report admin")
	}
}

// all:view grants nothing beyond the literal "all" resource. Only
// all:manage is a wildcard; a global read grant does not exist.
func TestAllowAllViewIsNotGlobal(t *testing.T) {
	eff := Resolve([]model.Role{role("odd", `{"all":["view"]}`)})

	if eff.Allow(ResourceCategories, ActionView) {
		t.Fatal("all:view must not grant view on other resources")
	}
	if eff.IsAdmin() {
		t.Fatal("all:view must not report admin")
	}
	if !eff.Allow(ResourceAll, ActionView) {
		t.Fatal("the literal all:view entry itself is still present")
	}
}

func TestDecideOutcomes(t *testing.T) {
	eff := Resolve([]model.Role{role("viewer", `{"categories":["view"]}`)})

	if d := eff.Decide(ResourceCategories, ActionView); d.Outcome != Granted {
		t.Fatalf("expected Granted, got %v", d.Outcome)
	}
	if d := eff.Decide(ResourceCategories, ActionDelete); d.Outcome != Denied {
		t.Fatalf("expected Denied, got %v", d.Outcome)
	}

	d := DegradedDecision(ResourceUsers, ActionView, errSentinel)
	if d.Outcome != Degraded || d.Err == nil {
		t.Fatalf("degraded decision must carry the cause, got %+v", d)
	}
}

var errSentinel = errTest("role lookup failed")

type errTest string

func (e errTest) Error() string { return string(e) }
