package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

func setupSQLIndex(t *testing.T, driver string) (*SQLIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLIndex(db, driver, nil), mock
}

func TestSQLIndex_Rebind(t *testing.T) {
	pg, _ := setupSQLIndex(t, DriverPostgres)
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite, _ := setupSQLIndex(t, DriverSQLite)
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestSQLIndex_Migrate(t *testing.T) {
	idx, mock := setupSQLIndex(t, DriverSQLite)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS artifact_versions").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, idx.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIndex_Publish(t *testing.T) {
	idx, mock := setupSQLIndex(t, DriverPostgres)
	mock.ExpectExec("INSERT INTO artifact_versions").
		WithArgs("g", "a", "1.0", "central", central.URL).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, idx.Publish(context.Background(), artifact.MustParse("g:a:1.0"), central))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIndex_ResolveVersionRange(t *testing.T) {
	idx, mock := setupSQLIndex(t, DriverPostgres)

	rows := sqlmock.NewRows([]string{"version", "repository_id", "repository_url"}).
		AddRow("2.0", "snapshots", snaps.URL).
		AddRow("1.0", "central", central.URL).
		AddRow("1.5", "other", "https://other.example.org").
		AddRow("2.0", "central", central.URL).
		AddRow("3.0", "central", central.URL)
	mock.ExpectQuery("SELECT (.+) FROM artifact_versions").
		WithArgs("g", "a").
		WillReturnRows(rows)

	res, err := idx.ResolveVersionRange(context.Background(), RangeRequest{
		Artifact:     artifact.MustParse("g:a:[1,3)"),
		Repositories: []Remote{central, snaps},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	var got []string
	for _, v := range res.Versions {
		got = append(got, v.String())
	}
	// 1.5 is hosted by a repository outside the request
	assert.Equal(t, []string{"1.0", "2.0"}, got)

	host, ok := res.Host(res.Versions[1])
	require.True(t, ok)
	assert.Equal(t, "central", host.ID, "first repository in request order wins")
}

func TestSQLIndex_QueryError(t *testing.T) {
	idx, mock := setupSQLIndex(t, DriverSQLite)
	mock.ExpectQuery("SELECT (.+) FROM artifact_versions").WillReturnError(errors.New("connection reset"))

	_, err := idx.ResolveVersionRange(context.Background(), RangeRequest{Artifact: artifact.MustParse("g:a:[1,3)")})
	assert.Error(t, err)
}

func TestOpenSQLIndex_UnsupportedDriver(t *testing.T) {
	_, err := OpenSQLIndex(context.Background(), "mysql", "dsn", nil)
	assert.Error(t, err)
}
