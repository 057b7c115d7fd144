package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rolecatalog/rbac-engine/internal/application"
	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	repo "github.com/rolecatalog/rbac-engine/internal/domain/repository"
	"github.com/rolecatalog/rbac-engine/internal/interface/middleware"
	"github.com/rolecatalog/rbac-engine/pkg/response"
	"github.com/rolecatalog/rbac-engine/pkg/validation"
)

type RoleHandler struct {
	Svc    *application.RoleService
	Logger *logrus.Logger
}

func NewRoleHandler(svc *application.RoleService, logger *logrus.Logger) *RoleHandler {
	return &RoleHandler{Svc: svc, Logger: logger}
}

type createRoleRequest struct {
	Name          string   `json:"name" binding:"required,min=2,max=100"`
	Description   string   `json:"description" binding:"max=500"`
	Status        string   `json:"status" binding:"omitempty,rolestatus"`
	PermissionIDs []string `json:"permission_ids" binding:"omitempty,unique,dive,uuid"`
}

type updateRoleRequest struct {
	Description string `json:"description" binding:"max=500"`
	Status      string `json:"status" binding:"required,rolestatus"`
}

type setPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"unique,dive,uuid"`
}

func roleJSON(r *entity.Role) gin.H {
	out := gin.H{
		"id":          r.ID,
		"name":        r.Name,
		"slug":        r.Slug,
		"description": r.Description,
		"status":      r.Status,
		"parent_id":   r.ParentID,
		"is_default":  r.IsDefault(),
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	}
	if r.CompanyID != nil {
		out["company_id"] = *r.CompanyID
	}
	return out
}

func permissionJSON(p *entity.Permission) gin.H {
	return gin.H{"id": p.ID, "name": p.Name, "slug": p.Slug}
}

// writeServiceError maps catalog errors onto HTTP statuses. Unknown
// errors are logged and surface as a bare 500.
func (h *RoleHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrRoleNotFound):
		response.Error[any](c, http.StatusNotFound, "role not found", nil)
	case errors.Is(err, application.ErrRoleNameConflict):
		response.Error[any](c, http.StatusConflict, "role name already taken", nil)
	case errors.Is(err, application.ErrPermissionUnavailable):
		response.Error[any](c, http.StatusUnprocessableEntity, "permission not available for role category", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, "forbidden", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("role catalog operation failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *RoleHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	r, err := h.Svc.CreateRole(c.Request.Context(), actor, application.CreateRoleInput{
		Name:          req.Name,
		Description:   req.Description,
		Status:        entity.RoleStatus(req.Status),
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, roleJSON(r), "role created", nil)
}

func (h *RoleHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var f repo.RoleFilter
	if s := c.Query("status"); s != "" {
		status := entity.RoleStatus(s)
		if !status.Valid() {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"status": "must be one of: ACTIVE, INACTIVE"})
			return
		}
		f.Status = &status
	}

	roles, meta, err := h.Svc.ListRoles(c.Request.Context(), actor, f, repo.Pagination{Page: page, Limit: limit})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleJSON(r))
	}
	response.Success(c, http.StatusOK, out, "roles", meta)
}

func (h *RoleHandler) Get(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	r, err := h.Svc.GetRole(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roleJSON(r), "role", nil)
}

func (h *RoleHandler) Update(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	r, err := h.Svc.UpdateRole(c.Request.Context(), actor, c.Param("id"), application.UpdateRoleInput{
		Description: req.Description,
		Status:      entity.RoleStatus(req.Status),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roleJSON(r), "role updated", nil)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	if err := h.Svc.DeleteRole(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "role deleted", nil)
}

func (h *RoleHandler) GetPermissions(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	perms, err := h.Svc.GetRolePermissions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionJSON(p))
	}
	response.Success(c, http.StatusOK, out, "role permissions", nil)
}

func (h *RoleHandler) SetPermissions(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	var req setPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.SetRolePermissions(c.Request.Context(), actor, c.Param("id"), req.PermissionIDs); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "role permissions set", nil)
}

// Catalog lists the permissions available to the actor's category.
func (h *RoleHandler) Catalog(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	perms, err := h.Svc.AvailablePermissions(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionJSON(p))
	}
	response.Success(c, http.StatusOK, out, "available permissions", nil)
}

// Search queries the role search index.
func (h *RoleHandler) Search(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing principal", nil)
		return
	}
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.SearchRoles(c.Request.Context(), actor, q, size)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}
