package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/event"
	repo "github.com/rolecatalog/rbac-engine/internal/domain/repository"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

var (
	ErrRoleNameConflict      = errors.New("role name already taken")
	ErrRoleNotFound          = errors.New("role not found")
	ErrPermissionUnavailable = errors.New("permission not available for role category")
	ErrForbidden             = errors.New("forbidden")
)

// RoleService orchestrates the role catalog: tenancy scoping, name
// uniqueness, permission availability, the status-transition guard and
// junction reconciliation. One domain event is emitted per completed
// mutation; event and search-index failures are logged, never surfaced.
type RoleService struct {
	Roles           repo.RoleRepository
	Permissions     repo.PermissionRepository
	RolePermissions repo.RolePermissionRepository
	Events          event.Publisher
	Redis           *redis.Client
	Logger          *logrus.Logger
	ES              *elasticsearch.Client
	ESRolesIndex    string
}

func NewRoleService(roles repo.RoleRepository, perms repo.PermissionRepository, rolePerms repo.RolePermissionRepository, events event.Publisher, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esRolesIndex string) *RoleService {
	return &RoleService{
		Roles:           roles,
		Permissions:     perms,
		RolePermissions: rolePerms,
		Events:          events,
		Redis:           rdb,
		Logger:          logger,
		ES:              es,
		ESRolesIndex:    esRolesIndex,
	}
}

type CreateRoleInput struct {
	Name          string
	Description   string
	Status        entity.RoleStatus
	PermissionIDs []string
}

type UpdateRoleInput struct {
	Description string
	Status      entity.RoleStatus
}

// PageMeta describes one page of a listed result set.
type PageMeta struct {
	TotalRecords int64 `json:"total_records"`
	TotalPages   int64 `json:"total_pages"`
	PageNumber   int   `json:"page_number"`
	PageSize     int   `json:"page_size"`
}

func permissionCacheKey(roleID string) string {
	return "role:permissions:" + roleID
}

// CreateRole persists a tenant role in the actor's own category with
// the requested permission attachments. Role row and junction rows are
// written atomically; on any failure nothing is kept.
func (s *RoleService) CreateRole(ctx context.Context, actor Actor, in CreateRoleInput) (*entity.Role, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}

	taken, err := s.Roles.NameTaken(ctx, actor.CompanyID, in.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrRoleNameConflict
	}

	if err := s.checkAvailable(ctx, actor.Role.ParentID, in.PermissionIDs); err != nil {
		return nil, err
	}

	companyID := actor.CompanyID
	r := &entity.Role{
		Name:        in.Name,
		Slug:        helpers.Slugify(in.Name),
		Description: in.Description,
		Status:      in.Status,
		ParentID:    actor.Role.ParentID,
		CompanyID:   &companyID,
	}
	if r.Status == "" {
		r.Status = entity.RoleStatusActive
	}

	if err := s.Roles.CreateWithPermissions(ctx, r, in.PermissionIDs); err != nil {
		return nil, err
	}

	s.emit(ctx, event.RoleCreated, actor, r.ID, nil, roleSnapshot(r))
	s.indexRole(ctx, r)
	return r, nil
}

// ListRoles returns the actor's tenant roles plus the default roles of
// the actor's category, newest first.
func (s *RoleService) ListRoles(ctx context.Context, actor Actor, f repo.RoleFilter, p repo.Pagination) ([]*entity.Role, *PageMeta, error) {
	if !actor.valid() {
		return nil, nil, ErrForbidden
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}

	roles, total, err := s.Roles.ListScoped(ctx, actor.CompanyID, actor.Role.ParentID, f, p)
	if err != nil {
		return nil, nil, err
	}

	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	meta := &PageMeta{
		TotalRecords: total,
		TotalPages:   pages,
		PageNumber:   p.Page,
		PageSize:     p.Limit,
	}
	return roles, meta, nil
}

// GetRole returns a single visible role. Missing, soft-deleted and
// other tenants' roles are indistinguishable: all ErrRoleNotFound.
func (s *RoleService) GetRole(ctx context.Context, actor Actor, roleID string) (*entity.Role, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}
	return s.findScoped(ctx, actor, roleID)
}

// UpdateRole persists description/status edits on a tenant-owned role.
// A status flip additionally requires the matching activate/deactivate
// capability; a same-status write never consults the guard.
func (s *RoleService) UpdateRole(ctx context.Context, actor Actor, roleID string, in UpdateRoleInput) (*entity.Role, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}
	r, err := s.findOwned(ctx, actor, roleID)
	if err != nil {
		return nil, err
	}

	if in.Status != r.Status {
		needed := CapDeactivateRole
		if in.Status == entity.RoleStatusActive {
			needed = CapActivateRole
		}
		if !actor.HasPermission(needed) {
			return nil, ErrForbidden
		}
	}

	pre := roleSnapshot(r)
	r.Description = in.Description
	r.Status = in.Status
	if err := s.Roles.Update(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, event.RoleUpdated, actor, r.ID, pre, roleSnapshot(r))
	s.indexRole(ctx, r)
	return r, nil
}

// DeleteRole soft-deletes a tenant-owned role. Default roles are out of
// the caller's jurisdiction and surface as ErrRoleNotFound.
func (s *RoleService) DeleteRole(ctx context.Context, actor Actor, roleID string) error {
	if !actor.valid() {
		return ErrForbidden
	}
	r, err := s.findOwned(ctx, actor, roleID)
	if err != nil {
		return err
	}
	if err := s.Roles.SoftDelete(ctx, r.ID); err != nil {
		return err
	}

	s.invalidatePermissionCache(ctx, r.ID)
	s.emit(ctx, event.RoleDeleted, actor, r.ID, roleSnapshot(r), nil)
	s.deleteRoleIndex(ctx, r.ID)
	return nil
}

// GetRolePermissions returns the permission set currently granted to a
// visible role.
func (s *RoleService) GetRolePermissions(ctx context.Context, actor Actor, roleID string) ([]*entity.Permission, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}
	r, err := s.findScoped(ctx, actor, roleID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		var cached []*entity.Permission
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, permissionCacheKey(r.ID), &cached); err == nil && ok {
			return cached, nil
		}
	}

	perms, err := s.Permissions.FindByRole(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, permissionCacheKey(r.ID), perms, 10*time.Minute); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("role_id", r.ID).Warn("permission cache write failed")
		}
	}
	return perms, nil
}

// SetRolePermissions reconciles the role's permission set to exactly
// the desired ids. Every desired id must be available to the role's
// category, otherwise nothing is mutated. The junction delete+insert
// pair runs in one storage transaction.
func (s *RoleService) SetRolePermissions(ctx context.Context, actor Actor, roleID string, desired []string) error {
	if !actor.valid() {
		return ErrForbidden
	}
	r, err := s.findOwned(ctx, actor, roleID)
	if err != nil {
		return err
	}
	if err := s.checkAvailable(ctx, r.ParentID, desired); err != nil {
		return err
	}

	current, err := s.RolePermissions.IDsByRole(ctx, r.ID)
	if err != nil {
		return err
	}

	toInsert, toDelete := ReconcilePermissions(current, desired)
	if len(toInsert) > 0 || len(toDelete) > 0 {
		if err := s.RolePermissions.Sync(ctx, r.ID, toInsert, toDelete); err != nil {
			return err
		}
		s.invalidatePermissionCache(ctx, r.ID)
	}

	s.emit(ctx, event.RolePermissionsSet, actor, r.ID, map[string]any{"permission_ids": current}, map[string]any{"permission_ids": desired})
	return nil
}

// AvailablePermissions lists the permission catalog of the actor's
// role category.
func (s *RoleService) AvailablePermissions(ctx context.Context, actor Actor) ([]*entity.Permission, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}
	return s.Permissions.FindAvailable(ctx, actor.Role.ParentID)
}

func (s *RoleService) findScoped(ctx context.Context, actor Actor, roleID string) (*entity.Role, error) {
	r, err := s.Roles.FindScoped(ctx, roleID, actor.CompanyID, actor.Role.ParentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return r, nil
}

// findOwned resolves a role for mutation. Default roles are visible but
// immutable, so they fail the same way out-of-scope roles do.
func (s *RoleService) findOwned(ctx context.Context, actor Actor, roleID string) (*entity.Role, error) {
	r, err := s.findScoped(ctx, actor, roleID)
	if err != nil {
		return nil, err
	}
	if !r.OwnedBy(actor.CompanyID) {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

// checkAvailable verifies every requested permission id against the
// category catalog before any mutation happens.
func (s *RoleService) checkAvailable(ctx context.Context, parentID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	available, err := s.Permissions.FindAvailable(ctx, parentID)
	if err != nil {
		return err
	}
	byID := make(map[string]struct{}, len(available))
	for _, p := range available {
		byID[p.ID] = struct{}{}
	}
	for _, id := range permissionIDs {
		if _, ok := byID[id]; !ok {
			return ErrPermissionUnavailable
		}
	}
	return nil
}

func (s *RoleService) invalidatePermissionCache(ctx context.Context, roleID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, permissionCacheKey(roleID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("role_id", roleID).Warn("permission cache invalidation failed")
	}
}

func (s *RoleService) emit(ctx context.Context, name string, actor Actor, roleID string, pre, post any) {
	if s.Events == nil {
		return
	}
	e := event.Event{
		Name:     name,
		Actor:    actor.UserID,
		RoleID:   roleID,
		Metadata: event.Metadata{Pre: pre, Post: post},
	}
	if err := s.Events.Publish(ctx, e); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"event": name, "role_id": roleID}).Warn("event publish failed")
	}
}

func roleSnapshot(r *entity.Role) map[string]any {
	return map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"slug":        r.Slug,
		"description": r.Description,
		"status":      r.Status,
	}
}

func (s *RoleService) indexRole(ctx context.Context, r *entity.Role) {
	if s.ES == nil || s.ESRolesIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"slug":        r.Slug,
		"description": r.Description,
		"status":      r.Status,
		"parent_id":   r.ParentID,
		"created_at":  r.CreatedAt.Format(time.RFC3339Nano),
	}
	if r.CompanyID != nil {
		doc["company_id"] = *r.CompanyID
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESRolesIndex, DocumentID: r.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("role_id", r.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("role_id", r.ID).Warn("es index response error")
	}
}

func (s *RoleService) deleteRoleIndex(ctx context.Context, roleID string) {
	if s.ES == nil || s.ESRolesIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESRolesIndex, DocumentID: roleID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("role_id", roleID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchRoles performs a multi_match query over the actor's visible
// role documents in Elasticsearch.
func (s *RoleService) SearchRoles(ctx context.Context, actor Actor, q string, size int) ([]map[string]any, error) {
	if !actor.valid() {
		return nil, ErrForbidden
	}
	if s.ES == nil || s.ESRolesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"name^2", "slug", "description"},
					},
				},
				"filter": []map[string]any{
					{"term": map[string]any{"parent_id": actor.Role.ParentID}},
				},
				"should": []map[string]any{
					{"term": map[string]any{"company_id": actor.CompanyID}},
					{"bool": map[string]any{"must_not": map[string]any{"exists": map[string]any{"field": "company_id"}}}},
				},
				"minimum_should_match": 1,
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESRolesIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
