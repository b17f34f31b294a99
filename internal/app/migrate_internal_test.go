package app

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestSeedDemoData_SkipsPopulatedDatabase(t *testing.T) {
	db, mock := newGormMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "employees"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	seeded, err := seedDemoData(db, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoEmployee(t *testing.T) {
	e := demoEmployee("John Manager", "manager@example.com", "manager", "2022-01-01", 5000, []byte("hash"))

	assert.Equal(t, "manager", e.Role)
	assert.Equal(t, "5000", e.BaseSalary.String())
	assert.Equal(t, 2022, e.JoiningDate.Year())
	assert.NotEqual(t, uuid.Nil, e.ID)
}

func TestDemoAttendance(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	a := demoAttendance(uuid.New(), day, 9, 30, 17, 30, 0)

	require.NotNil(t, a.CheckInTime)
	require.NotNil(t, a.CheckOutTime)
	assert.Equal(t, 9, a.CheckInTime.Hour())
	assert.Equal(t, 30, a.CheckOutTime.Minute())
	assert.Equal(t, "present", a.Status)
}
