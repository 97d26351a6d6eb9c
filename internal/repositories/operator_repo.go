package repositories

import (
	"context"

	"heartgram/internal/models"

	"github.com/google/uuid"
)

type OperatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

type operatorRepo struct {
	db DBTX
}

func NewOperatorRepo(db DBTX) OperatorRepository {
	return &operatorRepo{db: db}
}

// Create inserts an operator. The unique email constraint decides duplicates.
func (r *operatorRepo) Create(ctx context.Context, operator *models.Operator) error {
	query := `
		INSERT INTO operators (id, email, password_hash, role, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, operator.ID, operator.Email, operator.PasswordHash, operator.Role, operator.Name).
		Scan(&operator.CreatedAt, &operator.UpdatedAt)
	return mapError(err, "operator")
}

func (r *operatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `
		SELECT id, email, password_hash, role, name, created_at, updated_at
		FROM operators
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *operatorRepo) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := `
		SELECT id, email, password_hash, role, name, created_at, updated_at
		FROM operators
		WHERE email = $1
	`
	return r.scanOne(ctx, query, email)
}

func (r *operatorRepo) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM operators WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, mapError(err, "operator count")
	}
	return count, nil
}

func (r *operatorRepo) scanOne(ctx context.Context, query string, arg any) (*models.Operator, error) {
	operator := &models.Operator{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&operator.ID, &operator.Email, &operator.PasswordHash, &operator.Role,
		&operator.Name, &operator.CreatedAt, &operator.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "operator")
	}
	return operator, nil
}
