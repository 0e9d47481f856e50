package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type RoleRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    RoleRepository
	roleID  uuid.UUID
	context context.Context
}

func (suite *RoleRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewRoleRepo(mock)
	suite.roleID = uuid.New()
	suite.context = context.Background()
}

func (suite *RoleRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestRoleRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RoleRepoTestSuite))
}

func roleRow(id uuid.UUID, name string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "name", "description", "is_active", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, name, stringPtr(name+" role"), true, now, now, (*time.Time)(nil))
}

func (suite *RoleRepoTestSuite) TestCreate_Success() {
	role := &models.Role{ID: suite.roleID, Name: "KITCHEN", Description: stringPtr("Kitchen staff"), IsActive: true}

	suite.mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(role.ID, role.Name, role.Description, role.IsActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Create(suite.context, role))
}

func (suite *RoleRepoTestSuite) TestCreate_DuplicateName() {
	role := &models.Role{ID: suite.roleID, Name: "KITCHEN", IsActive: true}

	suite.mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(role.ID, role.Name, role.Description, role.IsActive).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, role)
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *RoleRepoTestSuite) TestGetByID_Success() {
	suite.mock.ExpectQuery(`SELECT .+ FROM roles\s+WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(suite.roleID).
		WillReturnRows(roleRow(suite.roleID, "SELLER"))

	role, err := suite.repo.GetByID(suite.context, suite.roleID, false)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "SELLER", role.Name)
	assert.Nil(suite.T(), role.DeletedAt)
}

func (suite *RoleRepoTestSuite) TestGetByID_IncludeDeleted() {
	suite.mock.ExpectQuery(`SELECT .+ FROM roles\s+WHERE id = \$1 AND TRUE`).
		WithArgs(suite.roleID).
		WillReturnRows(roleRow(suite.roleID, "OLD"))

	role, err := suite.repo.GetByID(suite.context, suite.roleID, true)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "OLD", role.Name)
}

func (suite *RoleRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT .+ FROM roles`).
		WithArgs(suite.roleID).
		WillReturnError(pgx.ErrNoRows)

	role, err := suite.repo.GetByID(suite.context, suite.roleID, false)
	assert.Nil(suite.T(), role)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RoleRepoTestSuite) TestGetByName_Success() {
	suite.mock.ExpectQuery(`SELECT .+ FROM roles\s+WHERE name = \$1`).
		WithArgs("ADMIN").
		WillReturnRows(roleRow(suite.roleID, "ADMIN"))

	role, err := suite.repo.GetByName(suite.context, "ADMIN", false)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.roleID, role.ID)
}

func (suite *RoleRepoTestSuite) TestUpdate_Success() {
	role := &models.Role{ID: suite.roleID, Name: "KITCHEN", Description: stringPtr("Line cooks"), IsActive: true}

	suite.mock.ExpectExec(`UPDATE roles`).
		WithArgs(role.Name, role.Description, role.IsActive, role.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.Update(suite.context, role))
}

func (suite *RoleRepoTestSuite) TestUpdate_NoRowsAffected() {
	role := &models.Role{ID: suite.roleID, Name: "GHOST"}

	suite.mock.ExpectExec(`UPDATE roles`).
		WithArgs(role.Name, role.Description, role.IsActive, role.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, role)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RoleRepoTestSuite) TestSoftDelete_KeepsRow() {
	suite.mock.ExpectExec(`UPDATE roles SET deleted_at = NOW\(\)`).
		WithArgs(suite.roleID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.SoftDelete(suite.context, suite.roleID))
}

func (suite *RoleRepoTestSuite) TestSoftDelete_AlreadyDeleted() {
	suite.mock.ExpectExec(`UPDATE roles SET deleted_at`).
		WithArgs(suite.roleID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.SoftDelete(suite.context, suite.roleID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RoleRepoTestSuite) TestList_WithOffset() {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "name", "description", "is_active", "created_at", "updated_at", "deleted_at"}).
		AddRow(uuid.New(), "SELLER", (*string)(nil), true, now, now, (*time.Time)(nil)).
		AddRow(uuid.New(), "GUEST", (*string)(nil), true, now, now, (*time.Time)(nil))

	suite.mock.ExpectQuery(`SELECT .+ FROM roles\s+WHERE deleted_at IS NULL`).
		WithArgs(2, 2).
		WillReturnRows(rows)

	roles, err := suite.repo.List(suite.context, 2, 2)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), roles, 2)
	assert.Equal(suite.T(), "GUEST", roles[1].Name)
}

func (suite *RoleRepoTestSuite) TestCount() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := suite.repo.Count(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), n)
}

func (suite *RoleRepoTestSuite) TestWithTx_UsesTransaction() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE roles SET deleted_at`).
		WithArgs(suite.roleID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	tx, err := suite.mock.Begin(suite.context)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.repo.WithTx(tx).SoftDelete(suite.context, suite.roleID))
	assert.NoError(suite.T(), tx.Commit(suite.context))
}

func (suite *RoleRepoTestSuite) TestContextCancellation() {
	ctx, cancel := context.WithCancel(suite.context)
	cancel()

	role := &models.Role{ID: suite.roleID, Name: "LATE"}
	suite.mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(role.ID, role.Name, role.Description, role.IsActive).
		WillReturnError(context.Canceled)

	err := suite.repo.Create(ctx, role)
	assert.True(suite.T(), errors.Is(err, context.Canceled))
}

func stringPtr(s string) *string {
	return &s
}

func (suite *RoleRepoTestSuite) TestCountHolders() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role_id = \$1 AND deleted_at IS NULL`).
		WithArgs(suite.roleID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := suite.repo.CountHolders(suite.context, suite.roleID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func TestPermissionNames_SkipsDeletedAndInactiveRoles(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()
	roleID := uuid.New()

	mock.ExpectQuery(`JOIN roles r ON r.id = rp.role_id AND r.deleted_at IS NULL AND r.is_active`).
		WithArgs(roleID).
		WillReturnRows(pgxmock.NewRows([]string{"name"}))

	names, err := NewRolePermissionRepo(mock).PermissionNames(context.Background(), roleID)
	assert.NoError(t, err)
	assert.Empty(t, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
