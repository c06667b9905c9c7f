package db

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoicer-web/internal/config"
	"github.com/diewo77/invoicer-web/internal/models"
)

func TestMigrateAndSeed(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: dsn}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, Migrate(conn))
	require.NoError(t, Seed(conn))
	require.NoError(t, Seed(conn))

	var customers, products int64
	conn.Model(&models.Customer{}).Count(&customers)
	conn.Model(&models.Product{}).Count(&products)
	assert.Equal(t, int64(len(seedCustomers())), customers)
	assert.Equal(t, int64(len(seedProducts())), products)

	var p models.Product
	require.NoError(t, conn.Where("label = ?", "Consulting").First(&p).Error)
	assert.Equal(t, 108.0, p.UnitPrice)
	assert.Equal(t, 18.0, p.UnitTax)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}
