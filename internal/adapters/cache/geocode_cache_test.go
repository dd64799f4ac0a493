package cache

import (
	"context"
	"database/sql/driver"
	"errors"
	"os"
	"path/filepath"
	"route-coordinator-service/internal/domain"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textArray lets sqlmock accept the []string bound to ANY($1::text[]) the
// way the pgx driver does.
type textArray struct{}

func (textArray) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func TestSQLGeocodeCacheGetMany(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(textArray{}))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"address", "lon", "lat"}).
		AddRow("1 Main St", -112.07, 33.45)
	mock.ExpectQuery(`FROM geocode_cache\s+WHERE address = ANY\(\$1::text\[\]\)`).
		WithArgs([]string{"1 Main St", "2 Oak Ave"}).
		WillReturnRows(rows)

	c := NewSQLGeocodeCache(db, nil)
	got, err := c.GetMany(context.Background(), []string{" 1 Main St", "2 Oak Ave", "1 Main St", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"1 Main St": {Lat: 33.45, Lon: -112.07}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGeocodeCacheGetManyEmptySkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	got, err := NewSQLGeocodeCache(db, nil).GetMany(context.Background(), []string{" ", ""})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGeocodeCacheQueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(textArray{}))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM geocode_cache`).WillReturnError(boom)

	_, err = NewSQLGeocodeCache(db, nil).GetMany(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}

func TestSQLGeocodeCachePutMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO geocode_cache \(address, lon, lat\)`)
	prep.ExpectExec().WithArgs("1 Main St", -112.07, 33.45).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewSQLGeocodeCache(db, nil).PutMany(context.Background(), map[string]domain.Coordinates{
		"1 Main St": {Lat: 33.45, Lon: -112.07},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteGeocodeCachePutManyRollsBackOnInvalidCoordinate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT OR REPLACE INTO geocode_cache`)
	mock.ExpectRollback()

	err = NewSqliteGeocodeCache(db, nil).PutMany(context.Background(), map[string]domain.Coordinates{
		"nowhere": {Lat: 95, Lon: 0},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteGeocodeCacheGetMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"address", "lon", "lat"}).
		AddRow("a", 1.0, 2.0).
		AddRow("b", 3.0, 4.0)
	mock.ExpectQuery(`WHERE address IN \(\?,\?\)`).
		WithArgs("a", "b").
		WillReturnRows(rows)

	got, err := NewSqliteGeocodeCache(db, nil).GetMany(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, domain.Coordinates{Lat: 4, Lon: 3}, got["b"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchemaPostgresTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache[\s\S]*DOUBLE PRECISION`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, InitSchema(context.Background(), db, DialectPostgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect(" PGX ")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	d, err = ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

type recordingWriter struct {
	got map[string]domain.Coordinates
}

func (w *recordingWriter) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	w.got = results
	return nil
}

func TestSeedFromJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"address": "  1901 W  Madison St ", "lat": 33.4484, "lon": -112.074},
		{"address": "Tempe", "lat": 33.4255, "lon": -111.94}
	]`), 0o600))

	w := &recordingWriter{}
	n, err := SeedFromJSON(context.Background(), w, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.Coordinates{Lat: 33.4484, Lon: -112.074}, w.got["1901 W Madison St"])

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"address": "", "lat": 0, "lon": 0}]`), 0o600))
	_, err = SeedFromJSON(context.Background(), w, bad)
	assert.Error(t, err)
}
