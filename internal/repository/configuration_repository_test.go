package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

func newConfigurationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestConfigurationRepositoryListByKeys(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()

	repo := NewConfigurationRepository(db)
	rows := sqlmock.NewRows([]string{"key", "value", "type", "description", "updated_by", "updated_at"}).
		AddRow("theme_primary_color", "#1d4ed8", "COLOR", "primary brand color", "admin", time.Now()).
		AddRow("site_name", "Edu Portal", "STRING", nil, nil, time.Now())
	mock.ExpectQuery("SELECT key, value").
		WithArgs("theme_primary_color", "site_name").
		WillReturnRows(rows)

	result, err := repo.ListByKeys(context.Background(), []string{"theme_primary_color", "site_name"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, models.ConfigurationTypeColor, result[0].Type)
	assert.Equal(t, "Edu Portal", result[1].Value)
	assert.Nil(t, result[1].UpdatedBy)
}

func TestConfigurationRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()

	repo := NewConfigurationRepository(db)
	mock.ExpectQuery("SELECT key, value, type").
		WithArgs("site_name").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "site_name")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()
	repo := NewConfigurationRepository(db)
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs("site_name", "Edu Portal", "STRING", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.Configuration{
		Key:       "site_name",
		Value:     "Edu Portal",
		Type:      models.ConfigurationTypeString,
		UpdatedBy: strPtr("admin"),
	}
	require.NoError(t, repo.Upsert(context.Background(), cfg))
	assert.False(t, cfg.UpdatedAt.IsZero())
}

func TestConfigurationRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()
	repo := NewConfigurationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs("theme_accent_color", "#f59e0b", "COLOR", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs("show_mentor_directory", "true", "BOOLEAN", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	items := []models.Configuration{
		{Key: "theme_accent_color", Value: "#f59e0b", Type: models.ConfigurationTypeColor, UpdatedBy: strPtr("admin")},
		{Key: "show_mentor_directory", Value: "true", Type: models.ConfigurationTypeBoolean, UpdatedBy: strPtr("admin")},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), items))
}

func strPtr(value string) *string {
	return &value
}
