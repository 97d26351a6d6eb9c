package repositories

import (
	"context"
	"time"

	"heartgram/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantRepository persists events. Partial updates are unconditional:
// concurrent edits are last-writer-wins, there is no version column.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByCode(ctx context.Context, code string) (*models.Tenant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateBranding(ctx context.Context, id uuid.UUID, update models.BrandingUpdate) error
	UpdateDetails(ctx context.Context, id uuid.UUID, update models.DetailsUpdate) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error
	CountMembers(ctx context.Context, id uuid.UUID) (int, error)
	CountPosts(ctx context.Context, id uuid.UUID) (int, error)
	CountByStatus(ctx context.Context) (map[models.TenantStatus]int, error)
	CompletePast(ctx context.Context, cutoff time.Time) (int64, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, event_code, owner_operator_id, status, name, event_date, description,
		primary_color, logo_url, font_name, use_logo_text, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(
		&tenant.ID, &tenant.Code, &tenant.OwnerID, &tenant.Status, &tenant.Name,
		&tenant.ScheduledDate, &tenant.Description, &tenant.BrandColor, &tenant.LogoRef,
		&tenant.FontRef, &tenant.UseTextLogo, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	return tenant, err
}

// Create inserts an event. A code collision returns ErrConflict wrapping ErrCodeTaken.
func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO events (id, event_code, owner_operator_id, status, name, event_date, description,
			primary_color, logo_url, font_name, use_logo_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		tenant.ID, tenant.Code, tenant.OwnerID, tenant.Status, tenant.Name, tenant.ScheduledDate,
		tenant.Description, tenant.BrandColor, tenant.LogoRef, tenant.FontRef, tenant.UseTextLogo,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	return mapError(err, "event")
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM events WHERE id = $1`
	tenant, err := scanTenant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "event")
	}
	return tenant, nil
}

func (r *tenantRepo) GetByCode(ctx context.Context, code string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM events WHERE event_code = $1`
	tenant, err := scanTenant(r.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "event")
	}
	return tenant, nil
}

func (r *tenantRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM events WHERE owner_operator_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM events ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *tenantRepo) list(ctx context.Context, query string, args ...any) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "events")
	}
	defer rows.Close()

	tenants := make([]*models.Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, mapError(err, "events")
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "events")
	}
	return tenants, nil
}

func (r *tenantRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE event_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, mapError(err, "event code")
	}
	return exists, nil
}

// UpdateBranding applies the non-nil fields. An empty logo reference clears the logo.
func (r *tenantRepo) UpdateBranding(ctx context.Context, id uuid.UUID, update models.BrandingUpdate) error {
	query := `
		UPDATE events
		SET primary_color = COALESCE($1, primary_color),
			logo_url = NULLIF(COALESCE($2, logo_url), ''),
			font_name = COALESCE($3, font_name),
			use_logo_text = COALESCE($4, use_logo_text),
			updated_at = NOW()
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, update.BrandColor, update.LogoRef, update.FontRef, update.UseTextLogo, id)
	if err != nil {
		return mapError(err, "event")
	}
	return requireAffected(tag, "event")
}

// UpdateDetails applies a partial update. Concurrent writers are last-writer-wins.
func (r *tenantRepo) UpdateDetails(ctx context.Context, id uuid.UUID, update models.DetailsUpdate) error {
	query := `
		UPDATE events
		SET name = COALESCE($1, name),
			event_date = CASE WHEN $2 THEN NULL ELSE COALESCE($3, event_date) END,
			description = COALESCE($4, description),
			updated_at = NOW()
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, update.Name, update.ClearScheduledDate, update.ScheduledDate, update.Description, id)
	if err != nil {
		return mapError(err, "event")
	}
	return requireAffected(tag, "event")
}

func (r *tenantRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return mapError(err, "event")
	}
	return requireAffected(tag, "event")
}

func (r *tenantRepo) CountMembers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM guests WHERE event_id = $1`, id).Scan(&count); err != nil {
		return 0, mapError(err, "guest count")
	}
	return count, nil
}

func (r *tenantRepo) CountPosts(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE event_id = $1`, id).Scan(&count); err != nil {
		return 0, mapError(err, "post count")
	}
	return count, nil
}

func (r *tenantRepo) CountByStatus(ctx context.Context) (map[models.TenantStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM events GROUP BY status`)
	if err != nil {
		return nil, mapError(err, "event counts")
	}
	defer rows.Close()

	counts := make(map[models.TenantStatus]int)
	for rows.Next() {
		var status models.TenantStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapError(err, "event counts")
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "event counts")
	}
	return counts, nil
}

// CompletePast marks active events dated before cutoff as completed
func (r *tenantRepo) CompletePast(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE events
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND event_date IS NOT NULL AND event_date < $3
	`
	tag, err := r.db.Exec(ctx, query, models.TenantStatusCompleted, models.TenantStatusActive, cutoff)
	if err != nil {
		return 0, mapError(err, "events")
	}
	return tag.RowsAffected(), nil
}
