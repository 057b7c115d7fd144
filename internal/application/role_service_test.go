package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolecatalog/rbac-engine/internal/application"
	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/event"
	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

const (
	companyA = "aaaaaaaa-0000-0000-0000-000000000001"
	companyB = "bbbbbbbb-0000-0000-0000-000000000002"

	permView       = "11111111-0000-0000-0000-000000000001"
	permManage     = "11111111-0000-0000-0000-000000000002"
	permActivate   = "11111111-0000-0000-0000-000000000003"
	permDeactivate = "11111111-0000-0000-0000-000000000004"
)

type fixture struct {
	store    *fakeStore
	events   *recorder
	svc      *application.RoleService
	template *entity.Role
	actor    application.Actor
}

// newFixture seeds one category template with four permissions and
// returns an actor from companyA whose role belongs to that category.
func newFixture(t *testing.T, caps ...string) *fixture {
	t.Helper()

	store := newFakeStore()
	template := store.seedRole("Dashboard", "00000000-0000-0000-0000-000000000000", nil, entity.RoleStatusActive)
	store.seedPermission(permView, "roles.view", template.ID)
	store.seedPermission(permManage, "roles.manage", template.ID)
	store.seedPermission(permActivate, "roles.activate", template.ID)
	store.seedPermission(permDeactivate, "roles.deactivate", template.ID)

	coA := companyA
	actorRole := store.seedRole("Administrator", template.ID, &coA, entity.RoleStatusActive)

	events := &recorder{}
	svc := application.NewRoleService(store, store, store, events, nil, nil, nil, "")

	return &fixture{
		store:    store,
		events:   events,
		svc:      svc,
		template: template,
		actor: application.Actor{
			UserID:      "user-a",
			Email:       "a@example.com",
			Role:        actorRole,
			CompanyID:   companyA,
			Permissions: caps,
		},
	}
}

func (f *fixture) tenantRole(name, companyID string) *entity.Role {
	cid := companyID
	return f.store.seedRole(name, f.template.ID, &cid, entity.RoleStatusActive)
}

func (f *fixture) defaultRole(name string) *entity.Role {
	return f.store.seedRole(name, f.template.ID, nil, entity.RoleStatusActive)
}

func TestCreateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateRole(ctx, f.actor, application.CreateRoleInput{
		Name:          "Support Team",
		Description:   "handles tickets",
		PermissionIDs: []string{permView, permManage},
	})
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)

	assert.Equal(t, "support-team", r.Slug)
	assert.Equal(t, entity.RoleStatusActive, r.Status, "status defaults to ACTIVE")
	assert.Equal(t, f.template.ID, r.ParentID, "category comes from the actor's role, not the request")
	require.NotNil(t, r.CompanyID)
	assert.Equal(t, companyA, *r.CompanyID)

	perms, err := f.svc.GetRolePermissions(ctx, f.actor, r.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "roles.manage", perms[0].Slug)
	assert.Equal(t, "roles.view", perms[1].Slug)

	created := f.events.named(event.RoleCreated)
	require.Len(t, created, 1)
	assert.Equal(t, r.ID, created[0].RoleID)
	assert.Equal(t, "user-a", created[0].Actor)
}

func TestCreateRoleNameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenantRole("Support", companyA)

	before, err := f.store.CountByCompany(ctx, companyA)
	require.NoError(t, err)

	for _, name := range []string{"Support", "support", "SUPPORT"} {
		_, err := f.svc.CreateRole(ctx, f.actor, application.CreateRoleInput{Name: name})
		assert.ErrorIs(t, err, application.ErrRoleNameConflict, name)
	}

	after, err := f.store.CountByCompany(ctx, companyA)
	require.NoError(t, err)
	assert.Equal(t, before, after, "conflicting create must persist nothing")
	assert.Empty(t, f.events.named(event.RoleCreated))
}

func TestCreateRoleNameFreeAcrossTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenantRole("Support", companyB)

	_, err := f.svc.CreateRole(ctx, f.actor, application.CreateRoleInput{Name: "Support"})
	assert.NoError(t, err, "uniqueness is per tenant")
}

func TestCreateRolePermissionUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRole(ctx, f.actor, application.CreateRoleInput{
		Name:          "Support",
		PermissionIDs: []string{permView, "99999999-0000-0000-0000-000000000099"},
	})
	assert.ErrorIs(t, err, application.ErrPermissionUnavailable)

	n, err := f.store.CountByCompany(ctx, companyA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "only the seed role remains")
}

func TestListRolesTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.tenantRole("Support", companyA)
	foreign := f.tenantRole("Support", companyB)
	def := f.defaultRole("Viewer")

	roles, meta, err := f.svc.ListRoles(ctx, f.actor, repository.RoleFilter{}, repository.Pagination{})
	require.NoError(t, err)

	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, own.ID)
	assert.Contains(t, ids, def.ID)
	assert.NotContains(t, ids, foreign.ID, "other tenants' roles never leak")

	assert.EqualValues(t, 3, meta.TotalRecords) // actor role + own + default
	assert.Equal(t, 1, meta.PageNumber)
	assert.Equal(t, 20, meta.PageSize)
}

func TestListRolesStatusFilterAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.tenantRole("Role "+string(rune('A'+i)), companyA)
	}
	inactive := f.tenantRole("Dormant", companyA)
	f.store.roles[inactive.ID].Status = entity.RoleStatusInactive

	st := entity.RoleStatusInactive
	roles, meta, err := f.svc.ListRoles(ctx, f.actor, repository.RoleFilter{Status: &st}, repository.Pagination{})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, inactive.ID, roles[0].ID)
	assert.EqualValues(t, 1, meta.TotalRecords)

	roles, meta, err = f.svc.ListRoles(ctx, f.actor, repository.RoleFilter{}, repository.Pagination{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, roles, 2) // 5 visible roles, page 2 of 3
	assert.EqualValues(t, 5, meta.TotalRecords)
	assert.EqualValues(t, 2, meta.TotalPages)
}

func TestGetRoleUniformNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foreign := f.tenantRole("Support", companyB)
	deleted := f.tenantRole("Old", companyA)
	require.NoError(t, f.store.SoftDelete(ctx, deleted.ID))

	for name, id := range map[string]string{
		"missing":      "99999999-0000-0000-0000-000000000000",
		"cross tenant": foreign.ID,
		"soft deleted": deleted.ID,
	} {
		_, err := f.svc.GetRole(ctx, f.actor, id)
		assert.ErrorIs(t, err, application.ErrRoleNotFound, name)
	}
}

func TestGetRoleDefaultVisible(t *testing.T) {
	f := newFixture(t)
	def := f.defaultRole("Viewer")

	got, err := f.svc.GetRole(context.Background(), f.actor, def.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault())
}

func TestUpdateRoleDescriptionOnly(t *testing.T) {
	f := newFixture(t) // no capabilities at all
	ctx := context.Background()
	r := f.tenantRole("Support", companyA)

	got, err := f.svc.UpdateRole(ctx, f.actor, r.ID, application.UpdateRoleInput{
		Description: "now with a description",
		Status:      r.Status,
	})
	require.NoError(t, err, "same-status edit must not consult the capability guard")
	assert.Equal(t, "now with a description", got.Description)
	assert.Len(t, f.events.named(event.RoleUpdated), 1)
}

func TestUpdateRoleStatusGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivate without capability", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)

		_, err := f.svc.UpdateRole(ctx, f.actor, r.ID, application.UpdateRoleInput{Status: entity.RoleStatusInactive})
		assert.ErrorIs(t, err, application.ErrForbidden)
		assert.Equal(t, entity.RoleStatusActive, f.store.roles[r.ID].Status, "denied flip must not persist")
		assert.Empty(t, f.events.named(event.RoleUpdated))
	})

	t.Run("deactivate with capability", func(t *testing.T) {
		f := newFixture(t, application.CapDeactivateRole)
		r := f.tenantRole("Support", companyA)

		got, err := f.svc.UpdateRole(ctx, f.actor, r.ID, application.UpdateRoleInput{Status: entity.RoleStatusInactive})
		require.NoError(t, err)
		assert.Equal(t, entity.RoleStatusInactive, got.Status)

		updated := f.events.named(event.RoleUpdated)
		require.Len(t, updated, 1, "exactly one event per completed mutation")
		assert.Equal(t, r.ID, updated[0].RoleID)
	})

	t.Run("activate needs the opposite capability", func(t *testing.T) {
		f := newFixture(t, application.CapDeactivateRole)
		r := f.tenantRole("Support", companyA)
		f.store.roles[r.ID].Status = entity.RoleStatusInactive

		_, err := f.svc.UpdateRole(ctx, f.actor, r.ID, application.UpdateRoleInput{Status: entity.RoleStatusActive})
		assert.ErrorIs(t, err, application.ErrForbidden)

		f.actor.Permissions = []string{application.CapActivateRole}
		_, err = f.svc.UpdateRole(ctx, f.actor, r.ID, application.UpdateRoleInput{Status: entity.RoleStatusActive})
		assert.NoError(t, err)
	})
}

func TestMutationsRejectDefaultRoles(t *testing.T) {
	f := newFixture(t, application.CapActivateRole, application.CapDeactivateRole)
	ctx := context.Background()
	def := f.defaultRole("Viewer")

	_, err := f.svc.UpdateRole(ctx, f.actor, def.ID, application.UpdateRoleInput{Description: "x", Status: def.Status})
	assert.ErrorIs(t, err, application.ErrRoleNotFound)

	err = f.svc.DeleteRole(ctx, f.actor, def.ID)
	assert.ErrorIs(t, err, application.ErrRoleNotFound)

	err = f.svc.SetRolePermissions(ctx, f.actor, def.ID, []string{permView})
	assert.ErrorIs(t, err, application.ErrRoleNotFound)

	assert.Nil(t, f.store.roles[def.ID].DeletedAt)
	assert.Empty(t, f.store.syncCalls)
}

func TestDeleteRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.tenantRole("Support", companyA)

	require.NoError(t, f.svc.DeleteRole(ctx, f.actor, r.ID))
	require.NotNil(t, f.store.roles[r.ID].DeletedAt, "delete is a soft delete")

	_, err := f.svc.GetRole(ctx, f.actor, r.ID)
	assert.ErrorIs(t, err, application.ErrRoleNotFound)

	err = f.svc.DeleteRole(ctx, f.actor, r.ID)
	assert.ErrorIs(t, err, application.ErrRoleNotFound, "second delete behaves like a miss")

	assert.Len(t, f.events.named(event.RoleDeleted), 1)
}

func TestSetRolePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("insert only", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)
		f.store.attach(r.ID, permView)

		require.NoError(t, f.svc.SetRolePermissions(ctx, f.actor, r.ID, []string{permView, permManage}))
		require.Len(t, f.store.syncCalls, 1)
		assert.ElementsMatch(t, []string{permManage}, f.store.syncCalls[0].toInsert)
		assert.Empty(t, f.store.syncCalls[0].toDelete)
	})

	t.Run("delete only", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)
		f.store.attach(r.ID, permView)
		f.store.attach(r.ID, permManage)

		require.NoError(t, f.svc.SetRolePermissions(ctx, f.actor, r.ID, []string{permView}))
		require.Len(t, f.store.syncCalls, 1)
		assert.Empty(t, f.store.syncCalls[0].toInsert)
		assert.ElementsMatch(t, []string{permManage}, f.store.syncCalls[0].toDelete)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)
		desired := []string{permView, permManage}

		require.NoError(t, f.svc.SetRolePermissions(ctx, f.actor, r.ID, desired))
		require.Len(t, f.store.syncCalls, 1)

		require.NoError(t, f.svc.SetRolePermissions(ctx, f.actor, r.ID, desired))
		assert.Len(t, f.store.syncCalls, 1, "a no-op reconciliation performs zero junction writes")

		// the event still records the complete intent, even for a no-op
		assert.Len(t, f.events.named(event.RolePermissionsSet), 2)
	})

	t.Run("unavailable permission aborts untouched", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)
		f.store.attach(r.ID, permView)

		err := f.svc.SetRolePermissions(ctx, f.actor, r.ID, []string{permManage, "99999999-0000-0000-0000-000000000099"})
		assert.ErrorIs(t, err, application.ErrPermissionUnavailable)
		assert.Empty(t, f.store.syncCalls)

		current, _ := f.store.IDsByRole(ctx, r.ID)
		assert.Equal(t, []string{permView}, current)
	})

	t.Run("clear all", func(t *testing.T) {
		f := newFixture(t)
		r := f.tenantRole("Support", companyA)
		f.store.attach(r.ID, permView)

		require.NoError(t, f.svc.SetRolePermissions(ctx, f.actor, r.ID, nil))
		current, _ := f.store.IDsByRole(ctx, r.ID)
		assert.Empty(t, current)
	})
}

func TestGetRolePermissionsOnDefaultRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	def := f.defaultRole("Viewer")
	f.store.attach(def.ID, permView)

	perms, err := f.svc.GetRolePermissions(ctx, f.actor, def.ID)
	require.NoError(t, err, "default roles are readable")
	require.Len(t, perms, 1)
	assert.Equal(t, "roles.view", perms[0].Slug)
}

func TestAvailablePermissions(t *testing.T) {
	f := newFixture(t)

	perms, err := f.svc.AvailablePermissions(context.Background(), f.actor)
	require.NoError(t, err)
	require.Len(t, perms, 4)
	assert.Equal(t, "roles.activate", perms[0].Slug, "catalog sorted by slug")
}

func TestActorValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anon := application.Actor{}
	_, err := f.svc.GetRole(ctx, anon, "whatever")
	assert.ErrorIs(t, err, application.ErrForbidden)

	_, _, err = f.svc.ListRoles(ctx, anon, repository.RoleFilter{}, repository.Pagination{})
	assert.ErrorIs(t, err, application.ErrForbidden)

	_, err = f.svc.CreateRole(ctx, anon, application.CreateRoleInput{Name: "X"})
	assert.ErrorIs(t, err, application.ErrForbidden)
}

func TestCreateRoleStorageFailureEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate = true

	_, err := f.svc.CreateRole(context.Background(), f.actor, application.CreateRoleInput{Name: "Support"})
	require.Error(t, err)
	assert.Empty(t, f.events.events)
}
