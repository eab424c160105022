package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUserService(db *gorm.DB) UserService {
	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	return NewUserService(repository.NewUserRepository(db), auditSvc)
}

func TestCreateUserAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "somchai",
		Password: "secret123",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "somchai", user.Username)

	token, err := svc.Login(ctx, LoginUserRequest{Username: "somchai", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	_, err = svc.Login(ctx, LoginUserRequest{Username: "somchai", Password: "wrong"})
	assert.Error(t, err)
	_, err = svc.Login(ctx, LoginUserRequest{Username: "nobody", Password: "secret123"})
	assert.Error(t, err)
}

func TestPasswordIsStoredHashed(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	created, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "somchai",
		Password: "secret123",
		Role:     model.RoleUser,
	})
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "somchai", Password: "secret123", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "somchai", Password: "other456", Role: model.RoleUser})
	assert.Error(t, err)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "somchai",
		Password: "secret123",
		Role:     "warlord",
	})
	assert.Error(t, err)
}

func TestUpdateUserChangesRoleAndPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{Username: "somchai", Password: "secret123", Role: model.RoleUser})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, created.ID.String(), UpdateUserRequest{
		Role:     model.RoleSuperAdmin,
		Password: "newpass99",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, updated.Role)

	_, err = svc.Login(ctx, LoginUserRequest{Username: "somchai", Password: "newpass99"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginUserRequest{Username: "somchai", Password: "secret123"})
	assert.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{Username: "somchai", Password: "secret123", Role: model.RoleUser})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID.String()))
	_, err = svc.GetUserByID(ctx, created.ID.String())
	assert.Error(t, err)
}

func TestAuditTrailRecordsActions(t *testing.T) {
	db := setupTestDB(t)
	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	svc := NewUserService(repository.NewUserRepository(db), auditSvc)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "somchai", Password: "secret123", Role: model.RoleUser})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginUserRequest{Username: "somchai", Password: "secret123"})
	require.NoError(t, err)

	logs, total, err := auditSvc.GetAuditLogs(ctx, 1, 20, model.ActionLogin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "somchai", logs[0].Username)
}
