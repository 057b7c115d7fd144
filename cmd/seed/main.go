package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/rolecatalog/rbac-engine/config"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

// Seeds a minimal working catalog: a category template role, its
// permission set, one default role, one tenant admin role and an admin
// principal to log in with.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Category template role. Its permission attachments define what is
	// "available" to every role in the category.
	var parentID string
	if err := db.QueryRow(`
		INSERT INTO roles (name, slug, description, status, parent_id, company_id)
		VALUES ('Dashboard', 'dashboard', 'category template', 'ACTIVE', '00000000-0000-0000-0000-000000000000', NULL)
		ON CONFLICT (slug) WHERE company_id IS NULL AND deleted_at IS NULL DO UPDATE SET updated_at = now()
		RETURNING id
	`).Scan(&parentID); err != nil {
		log.Fatalf("failed to upsert category template: %v", err)
	}

	permissions := []struct{ name, slug string }{
		{"View Roles", "roles.view"},
		{"Manage Roles", "roles.manage"},
		{"Activate Role", "roles.activate"},
		{"Deactivate Role", "roles.deactivate"},
	}
	for _, p := range permissions {
		var pid string
		if err := db.QueryRow(`
			INSERT INTO permissions (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, p.name, p.slug).Scan(&pid); err != nil {
			log.Fatalf("failed to upsert permission %s: %v", p.slug, err)
		}
		if _, err := db.Exec(`
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2)
			ON CONFLICT (role_id, permission_id) DO NOTHING
		`, parentID, pid); err != nil {
			log.Fatalf("failed to attach permission %s: %v", p.slug, err)
		}
	}
	fmt.Printf("category template ensured: %s (%d permissions)\n", parentID, len(permissions))

	// Default role visible to every tenant in the category.
	var viewerID string
	if err := db.QueryRow(`
		INSERT INTO roles (name, slug, description, status, parent_id, company_id)
		VALUES ('Viewer', 'viewer', 'read-only default role', 'ACTIVE', $1, NULL)
		ON CONFLICT (slug) WHERE company_id IS NULL AND deleted_at IS NULL DO UPDATE SET updated_at = now()
		RETURNING id
	`, parentID).Scan(&viewerID); err != nil {
		log.Fatalf("failed to upsert default role: %v", err)
	}

	// Tenant admin role with the full catalog.
	companyID := "11111111-1111-1111-1111-111111111111"
	var adminRoleID string
	if err := db.QueryRow(`
		INSERT INTO roles (name, slug, description, status, parent_id, company_id)
		VALUES ('Administrator', 'administrator', 'tenant administrator', 'ACTIVE', $1, $2)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, parentID, companyID).Scan(&adminRoleID); err != nil {
		if err := db.QueryRow(`
			SELECT id FROM roles WHERE company_id = $1 AND slug = 'administrator' AND deleted_at IS NULL
		`, companyID).Scan(&adminRoleID); err != nil {
			log.Fatalf("failed to resolve admin role: %v", err)
		}
	}
	if _, err := db.Exec(`
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, rp.permission_id FROM role_permissions rp WHERE rp.role_id = $2
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`, adminRoleID, parentID); err != nil {
		log.Fatalf("failed to grant admin permissions: %v", err)
	}

	email := "admin@example.com"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var userID string
	if err := db.QueryRow(`
		INSERT INTO users (email, password_hash, name, company_id, role_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET role_id = EXCLUDED.role_id
		RETURNING id
	`, email, hash, "Tenant Admin", companyID, adminRoleID).Scan(&userID); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	fmt.Printf("seeded admin: id=%s email=%s password=%s role=%s company=%s\n", userID, email, password, adminRoleID, companyID)
}
