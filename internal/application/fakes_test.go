package application_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/event"
	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

// fakeStore is an in-memory stand-in for the postgres repositories. It
// implements RoleRepository, PermissionRepository,
// RolePermissionRepository and UserRepository against the same shared
// state so availability checks and junction reads see each other's
// writes, like the real schema.
type fakeStore struct {
	mu          sync.Mutex
	roles       map[string]*entity.Role
	permissions map[string]*entity.Permission
	junction    map[string]map[string]bool // roleID -> permissionID set
	users       map[string]*entity.User

	clock time.Time

	failCreate bool
	syncCalls  []syncCall
}

type syncCall struct {
	roleID   string
	toInsert []string
	toDelete []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:       make(map[string]*entity.Role),
		permissions: make(map[string]*entity.Permission),
		junction:    make(map[string]map[string]bool),
		users:       make(map[string]*entity.User),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

// seedPermission registers a permission and optionally attaches it to
// the given template role, making it available to that category.
func (f *fakeStore) seedPermission(id, slug, templateID string) *entity.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &entity.Permission{ID: id, Name: slug, Slug: slug}
	f.permissions[id] = p
	if templateID != "" {
		f.attach(templateID, id)
	}
	return p
}

func (f *fakeStore) attach(roleID, permID string) {
	if f.junction[roleID] == nil {
		f.junction[roleID] = make(map[string]bool)
	}
	f.junction[roleID][permID] = true
}

func (f *fakeStore) seedRole(name, parentID string, companyID *string, status entity.RoleStatus) *entity.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	r := &entity.Role{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      strings.ToLower(name),
		Status:    status,
		ParentID:  parentID,
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.roles[r.ID] = r
	return r
}

// RoleRepository

func (f *fakeStore) CreateWithPermissions(_ context.Context, r *entity.Role, permissionIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("storage fault")
	}
	now := f.tick()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	cp := *r
	f.roles[r.ID] = &cp
	for _, pid := range permissionIDs {
		f.attach(r.ID, pid)
	}
	return nil
}

func (f *fakeStore) visible(r *entity.Role, companyID, parentID string) bool {
	if r.DeletedAt != nil || r.ParentID != parentID {
		return false
	}
	return r.CompanyID == nil || *r.CompanyID == companyID
}

func (f *fakeStore) FindScoped(_ context.Context, id, companyID, parentID string) (*entity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok || !f.visible(r, companyID, parentID) {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) NameTaken(_ context.Context, companyID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.DeletedAt == nil && r.OwnedBy(companyID) && strings.EqualFold(r.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListScoped(_ context.Context, companyID, parentID string, flt repository.RoleFilter, p repository.Pagination) ([]*entity.Role, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*entity.Role
	for _, r := range f.roles {
		if !f.visible(r, companyID, parentID) {
			continue
		}
		if flt.Status != nil && r.Status != *flt.Status {
			continue
		}
		cp := *r
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeStore) Update(_ context.Context, r *entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.roles[r.ID]
	if !ok || stored.DeletedAt != nil {
		return repository.ErrNotFound
	}
	stored.Description = r.Description
	stored.Status = r.Status
	stored.UpdatedAt = f.tick()
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.roles[id]
	if !ok || stored.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := f.tick()
	stored.DeletedAt = &now
	return nil
}

func (f *fakeStore) CountByCompany(_ context.Context, companyID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.roles {
		if r.DeletedAt == nil && r.OwnedBy(companyID) {
			n++
		}
	}
	return n, nil
}

// PermissionRepository

func (f *fakeStore) FindAvailable(_ context.Context, parentID string) ([]*entity.Permission, error) {
	return f.permissionsOf(parentID), nil
}

func (f *fakeStore) FindByRole(_ context.Context, roleID string) ([]*entity.Permission, error) {
	return f.permissionsOf(roleID), nil
}

func (f *fakeStore) permissionsOf(roleID string) []*entity.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Permission, 0)
	for pid := range f.junction[roleID] {
		if p, ok := f.permissions[pid]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// RolePermissionRepository

func (f *fakeStore) IDsByRole(_ context.Context, roleID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.junction[roleID]))
	for pid := range f.junction[roleID] {
		out = append(out, pid)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) Sync(_ context.Context, roleID string, toInsert, toDelete []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls = append(f.syncCalls, syncCall{roleID: roleID, toInsert: toInsert, toDelete: toDelete})
	for _, pid := range toDelete {
		delete(f.junction[roleID], pid)
	}
	for _, pid := range toInsert {
		f.attach(roleID, pid)
	}
	return nil
}

// UserRepository

func (f *fakeStore) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) RoleOf(_ context.Context, userID string) (*entity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r, ok := f.roles[u.RoleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

var (
	_ repository.RoleRepository           = (*fakeStore)(nil)
	_ repository.PermissionRepository     = (*fakeStore)(nil)
	_ repository.RolePermissionRepository = (*fakeStore)(nil)
	_ repository.UserRepository           = (*fakeStore)(nil)
)

// recorder captures published domain events.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) named(name string) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
