package repositories_test

import (
	"fmt"
	"testing"

	"bazaar/internal/models"
	"bazaar/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupProductDB(t *testing.T) *repositories.GORMProductRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return repositories.NewGORMProductRepository(db)
}

func TestGORMProductRepository_DecrementStock(t *testing.T) {
	repo := setupProductDB(t)
	product := &models.Product{Name: "Ceramic Mug", Price: 250, Stock: 5}
	require.NoError(t, repo.Create(product))

	// Ordinary decrement.
	require.NoError(t, repo.DecrementStock(product.ID, 2))
	got, err := repo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	// Decrementing more than is available floors at zero, never negative.
	require.NoError(t, repo.DecrementStock(product.ID, 10))
	got, err = repo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	// A further decrement stays at zero.
	require.NoError(t, repo.DecrementStock(product.ID, 1))
	got, err = repo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	assert.ErrorIs(t, repo.DecrementStock("missing", 1), models.ErrProductNotFound)
}

func TestMockProductRepository_DecrementStockFloorsAtZero(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	product := &models.Product{Name: "Ceramic Mug", Price: 250, Stock: 3}
	require.NoError(t, repo.Create(product))

	require.NoError(t, repo.DecrementStock(product.ID, 7))
	got, err := repo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	assert.ErrorIs(t, repo.DecrementStock("missing", 1), models.ErrProductNotFound)
}
