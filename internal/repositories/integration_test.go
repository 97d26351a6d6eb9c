//go:build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_TenantLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	couple := testhelpers.SetupTestOperator(t, db, models.RoleCouple, "hunter22")
	tenant := testhelpers.SetupTestTenant(t, db, couple.ID, "INTEG001")
	tenants := repositories.NewTenantRepo(db.Pool)

	found, err := tenants.GetByCode(ctx, "INTEG001")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	exists, err := tenants.CodeExists(ctx, "INTEG001")
	require.NoError(t, err)
	assert.True(t, exists)

	second := &models.Tenant{ID: uuid.New(), Code: "INTEG002", OwnerID: couple.ID, Status: models.TenantStatusActive, Name: "Again", BrandColor: models.DefaultBrandColor}
	err = tenants.Create(ctx, second)
	assert.ErrorIs(t, err, common.ErrConflict, "one event per couple")

	require.NoError(t, tenants.SetStatus(ctx, tenant.ID, models.TenantStatusInactive))
	found, err = tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusInactive, found.Status)
}

func TestIntegration_GuestEmailIsGlobal(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	a := testhelpers.SetupTestOperator(t, db, models.RoleCouple, "hunter22")
	b := testhelpers.SetupTestOperator(t, db, models.RoleCouple, "hunter22")
	first := testhelpers.SetupTestTenant(t, db, a.ID, "INTEG003")
	second := testhelpers.SetupTestTenant(t, db, b.ID, "INTEG004")
	testhelpers.SetupTestMember(t, db, first.ID, "shared@example.com", "abcd1234")

	members := repositories.NewMemberRepo(db.Pool)
	err := members.Create(ctx, &models.Member{
		ID:           uuid.New(),
		TenantID:     second.ID,
		Name:         "Dup",
		Email:        "shared@example.com",
		PasswordHash: testhelpers.HashSecret(t, "abcd1234"),
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	count, err := repositories.NewTenantRepo(db.Pool).CountMembers(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegration_CompletePast(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	couple := testhelpers.SetupTestOperator(t, db, models.RoleCouple, "hunter22")
	tenant := testhelpers.SetupTestTenant(t, db, couple.ID, "INTEG005")
	_, err := db.Pool.Exec(ctx, `UPDATE events SET event_date = $1 WHERE id = $2`, time.Now().AddDate(0, 0, -10), tenant.ID)
	require.NoError(t, err)

	tenants := repositories.NewTenantRepo(db.Pool)
	n, err := tenants.CompletePast(ctx, time.Now().AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusCompleted, found.Status)
}
