package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"adminhub/internal/model"

	"github.com/google/uuid"
)

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[uuid.UUID]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[uuid.UUID]*model.Role)}
}

func (r *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	clone := *role
	r.roles[role.ID] = &clone
	return nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, errNotFound
	}
	clone := *role
	return &clone, nil
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.Name == name {
			clone := *role
			return &clone, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeRoleRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Role
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) List(_ context.Context) ([]model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *fakeRoleRepo) ListForUser(_ context.Context, _ uuid.UUID) ([]model.Role, error) {
	return nil, nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *role
	r.roles[role.ID] = &clone
	return nil
}

func (r *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles, id)
	return nil
}

var errNotFound = errors.New("record not found")

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, string, string, string, string, string, interface{}) {}

func TestCreateRoleRejectsUnknownPermissionNames(t *testing.T) {
	svc := NewRoleService(newFakeRoleRepo(), noopRecorder{})

	_, err := svc.CreateRole(context.Background(), "", CreateRoleRequest{
		Name:        "support",
		Permissions: map[string][]string{"widgets": {"view"}},
	})
	if err == nil {
		t.Fatal("unknown resource must be rejected at save time")
	}

	_, err = svc.CreateRole(context.Background(), "", CreateRoleRequest{
		Name:        "support",
		Permissions: map[string][]string{"categories": {"approve"}},
	})
	if err == nil {
		t.Fatal("unknown action must be rejected at save time")
	}
}

func TestCreateRoleStoresCanonicalMatrix(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewRoleService(repo, noopRecorder{})

	created, err := svc.CreateRole(context.Background(), "", CreateRoleRequest{
		Name:        "editor",
		Permissions: map[string][]string{"categories": {"update", "view", "create"}},
	})
	if err != nil {
		t.Fatalf("CreateRole() error: %v", err)
	}

	role, err := repo.GetByName(context.Background(), "editor")
	if err != nil {
		t.Fatalf("role not persisted: %v", err)
	}
	if want := `{"categories":["create","update","view"]}`; role.Permissions != want {
		t.Fatalf("stored permissions = %s, want %s", role.Permissions, want)
	}
	if len(created.Permissions["categories"]) != 3 {
		t.Fatalf("response permissions = %v", created.Permissions)
	}
}

func TestDeleteRoleGuardsSystemRoles(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewRoleService(repo, noopRecorder{})

	system := model.Role{Name: "admin", IsSystem: true, Permissions: `{"all":["manage"]}`}
	if err := repo.Create(context.Background(), &system); err != nil {
		t.Fatal(err)
	}

	err := svc.DeleteRole(context.Background(), "", system.ID.String())
	if err == nil || !strings.Contains(err.Error(), "system role") {
		t.Fatalf("expected system-role guard, got %v", err)
	}
	if _, getErr := repo.GetByID(context.Background(), system.ID); getErr != nil {
		t.Fatal("system role must survive the delete attempt")
	}
}

func TestSeedDefaultRolesIsIdempotent(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := NewRoleService(repo, noopRecorder{})

	if err := svc.SeedDefaultRoles(context.Background()); err != nil {
		t.Fatalf("first seed error: %v", err)
	}
	if err := svc.SeedDefaultRoles(context.Background()); err != nil {
		t.Fatalf("second seed error: %v", err)
	}

	roles, _ := repo.List(context.Background())
	if len(roles) != 3 {
		t.Fatalf("expected 3 seeded roles, got %d", len(roles))
	}

	admin, err := repo.GetByName(context.Background(), "admin")
	if err != nil {
		t.Fatalf("admin role missing: %v", err)
	}
	if admin.Permissions != `{"all":["manage"]}` || !admin.IsSystem {
		t.Fatalf("unexpected admin role: %+v", admin)
	}
}
