package database

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/migrations"
)

var testMigrations = fstest.MapFS{
	"0001_widgets.sql":          {Data: []byte("CREATE TABLE widgets (id INT);")},
	"0001_widgets_rollback.sql": {Data: []byte("DROP TABLE widgets;")},
	"0002_gadgets.sql":          {Data: []byte("CREATE TABLE gadgets (id INT);")},
	"README.md":                 {Data: []byte("ignored")},
}

func TestRunSQLMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs("0001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs("0002").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE gadgets (id INT);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
		WithArgs("0002", "0002_gadgets.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := RunSQLMigrations(context.Background(), db, testMigrations, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_gadgets.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSQLMigrationsRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("0001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE widgets (id INT);")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	applied, err := RunSQLMigrations(context.Background(), db, testMigrations, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_widgets.sql")
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackLast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "name"}).AddRow("0001", "0001_widgets.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE widgets;")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations WHERE version = $1")).
		WithArgs("0001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	name, err := RollbackLast(context.Background(), db, testMigrations, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "0001_widgets.sql", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackLastWithNothingApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "name"}))

	_, err = RollbackLast(context.Background(), db, testMigrations, logging.Discard())
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestEmbeddedMigrationsHaveRollbacks(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		_, err := migrations.FS.Open(f[:len(f)-len(".sql")] + rollbackSuffix)
		assert.NoError(t, err, "missing rollback for %s", f)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, SQLitePath: t.TempDir() + "/foodgram.db"}
	db, err := Open(cfg, logging.Discard())
	require.NoError(t, err)

	require.NoError(t, RunMigrations(context.Background(), db, migrations.FS, logging.Discard()))

	user := models.User{Email: "cook@example.com", Username: "cook", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
	assert.NoError(t, HealthCheck(context.Background(), db))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, &config.Config{RedisURL: "redis://" + mr.Addr()}, logging.Discard())
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Set(ctx, "k", "v", 0).Err())

	_, err = NewRedisClient(ctx, &config.Config{RedisURL: "not a url"}, logging.Discard())
	assert.Error(t, err)

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(ctx, &config.Config{RedisURL: "redis://" + addr}, logging.Discard())
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(&config.Config{RedisHost: "cache", RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(&config.Config{RedisHost: "cache", RedisURL: "redis://:secret@db.example:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "db.example:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)
}
