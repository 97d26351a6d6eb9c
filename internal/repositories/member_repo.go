package repositories

import (
	"context"

	"heartgram/internal/models"

	"github.com/google/uuid"
)

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Member, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	CountAll(ctx context.Context) (int, error)
}

type memberRepo struct {
	db DBTX
}

func NewMemberRepo(db DBTX) MemberRepository {
	return &memberRepo{db: db}
}

const memberColumns = `id, event_id, name, email, password_hash, phone, created_at, updated_at`

// Create inserts a guest. Email is unique across all events; a concurrent
// duplicate insert surfaces as ErrConflict from the constraint.
func (r *memberRepo) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO guests (id, event_id, name, email, password_hash, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, member.ID, member.TenantID, member.Name, member.Email, member.PasswordHash, member.Phone).
		Scan(&member.CreatedAt, &member.UpdatedAt)
	return mapError(err, "guest")
}

func (r *memberRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM guests WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *memberRepo) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM guests WHERE email = $1`
	return r.scanOne(ctx, query, email)
}

func (r *memberRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM guests WHERE event_id = $1 ORDER BY created_at, name`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err, "guests")
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.ID, &member.TenantID, &member.Name, &member.Email,
			&member.PasswordHash, &member.Phone, &member.CreatedAt, &member.UpdatedAt); err != nil {
			return nil, mapError(err, "guests")
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "guests")
	}
	return members, nil
}

func (r *memberRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE guests SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return mapError(err, "guest")
	}
	return requireAffected(tag, "guest")
}

func (r *memberRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM guests`).Scan(&count); err != nil {
		return 0, mapError(err, "guest count")
	}
	return count, nil
}

func (r *memberRepo) scanOne(ctx context.Context, query string, arg any) (*models.Member, error) {
	member := &models.Member{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&member.ID, &member.TenantID, &member.Name, &member.Email,
		&member.PasswordHash, &member.Phone, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "guest")
	}
	return member, nil
}
