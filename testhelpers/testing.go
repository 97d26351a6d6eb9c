package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"heartgram/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL. The test is skipped when it is not set.
// The schema is expected to be migrated already.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool}
	db.Cleanup = func() error {
		defer pool.Close()
		_, err := pool.Exec(context.Background(), `TRUNCATE posts, guests, events, operators`)
		return err
	}
	t.Cleanup(func() {
		if err := db.Cleanup(); err != nil {
			t.Logf("cleanup failed: %v", err)
		}
	})
	return db
}

// HashSecret hashes with the minimum bcrypt cost
func HashSecret(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}
	return string(hash)
}

// SetupTestOperator inserts an operator with the given role and secret
func SetupTestOperator(t *testing.T, db *TestDB, role models.Role, secret string) *models.Operator {
	t.Helper()

	operator := &models.Operator{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		PasswordHash: HashSecret(t, secret),
		Role:         role,
		Name:         "Test " + string(role),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO operators (id, email, password_hash, role, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		operator.ID, operator.Email, operator.PasswordHash, operator.Role, operator.Name, operator.CreatedAt, operator.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test operator: %v", err)
	}
	return operator
}

// SetupTestTenant inserts an active event owned by owner
func SetupTestTenant(t *testing.T, db *TestDB, owner uuid.UUID, code string) *models.Tenant {
	t.Helper()

	font := models.DefaultFont
	tenant := &models.Tenant{
		ID:          uuid.New(),
		Code:        code,
		OwnerID:     owner,
		Status:      models.TenantStatusActive,
		Name:        "Test Wedding",
		BrandColor:  models.DefaultBrandColor,
		FontRef:     &font,
		UseTextLogo: true,
	}

	query := `
		INSERT INTO events (id, event_code, owner_operator_id, status, name, primary_color, font_name, use_logo_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		tenant.ID, tenant.Code, tenant.OwnerID, tenant.Status, tenant.Name, tenant.BrandColor, tenant.FontRef, tenant.UseTextLogo)
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return tenant
}

// SetupTestMember inserts a guest of tenantID
func SetupTestMember(t *testing.T, db *TestDB, tenantID uuid.UUID, email, secret string) *models.Member {
	t.Helper()

	member := &models.Member{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "Test Guest",
		Email:        email,
		PasswordHash: HashSecret(t, secret),
	}

	query := `
		INSERT INTO guests (id, event_id, name, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		member.ID, member.TenantID, member.Name, member.Email, member.PasswordHash)
	if err != nil {
		t.Fatalf("Failed to create test guest: %v", err)
	}
	return member
}
