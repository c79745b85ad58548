package database

import (
	"context"
	"testing"

	"fusion-recipes/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 1}, false)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db, &widget{}))
	require.NoError(t, db.Create(&widget{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.NoError(t, Ping(context.Background(), db))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, false)
	assert.Error(t, err)
}
