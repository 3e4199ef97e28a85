package database_test

import (
	"testing"

	"imgstore/internal/database"
	"imgstore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := database.Open("sqlite", "file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer database.Close(db)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Image{}))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "Username"))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "ExternalProviderID"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open("mysql", "")
	assert.Error(t, err)
}
