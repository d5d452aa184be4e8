package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"vacancyhub/internal/database"
	"vacancyhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(context.Background(), db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func uintPtr(v uint) *uint { return &v }

func seedLocation(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Country{ID: 5, Name: "Uzbekistan"}).Error)
	require.NoError(t, db.Create(&models.Region{ID: 7, CountryID: 5, Name: "Karakalpakstan"}).Error)
}

func newJob(authorID uint) *models.JobVacancy {
	return &models.JobVacancy{
		PostingBase: models.PostingBase{
			AuthorID:  authorID,
			CountryID: 5,
			RegionID:  uintPtr(7),
			Contact:   "+998 90 000 00 00",
			Status:    models.StatusNew,
		},
		PositionTitle: "Backend developer",
		Address:       "Nukus",
		Requirements:  "Go",
		WorkSchedule:  "9-18",
		Salary:        "1000$",
	}
}
