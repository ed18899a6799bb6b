package cache

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &PostgresStore{db: mock}, mock
}

func TestPostgresStoreGet(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM cache_entries WHERE key = \$1`).
		WithArgs("video_a_metadata").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"v":1}`)))
	mock.ExpectQuery(`SELECT value FROM cache_entries WHERE key = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, ok, err := s.Get(ctx, "video_a_metadata")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"v":1}`, string(got))

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWrites(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO cache_entries`).
		WithArgs("k", []byte("v")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM cache_entries WHERE key = ANY\(\$1\)`).
		WithArgs([]string{"a", "b"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM cache_entries WHERE left\(key, \$1\) = \$2`).
		WithArgs(len("video_x_"), "video_x_").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "a", "b"))
	require.NoError(t, s.Delete(ctx)) // no-op, no query
	require.NoError(t, s.DeletePrefix(ctx, "video_x_"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cache_entries`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, s.migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectPostgresRequiresURL(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "")
	assert.Error(t, err)
}
