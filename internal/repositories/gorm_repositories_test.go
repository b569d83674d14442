package repositories_test

import (
	"fmt"
	"testing"

	"stardewshop/internal/database"
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB migrates a fresh named shared-cache memory database so the
// schema stays visible across pooled connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func TestGORMOrderRepository_Create_PersistsItems(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		UserID:     1,
		TotalPrice: 20.0,
		Items:      []models.OrderItem{{ProductID: 3, Quantity: 2}},
	}
	assert.NoError(t, repo.Create(order))
	assert.NotZero(t, order.ID)

	got, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, got.TotalPrice)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, uint(3), got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestGORMOrderRepository_Create_RollsBackOnItemFailure(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	// Dropping the line item table makes the item insert fail after the
	// order row already went in; the transaction must take the order row
	// back out with it.
	if err := db.Migrator().DropTable(&models.OrderItem{}); err != nil {
		t.Fatalf("failed to drop order item table: %v", err)
	}

	order := &models.Order{
		UserID:     1,
		TotalPrice: 20.0,
		Items:      []models.OrderItem{{ProductID: 3, Quantity: 2}},
	}
	assert.Error(t, repo.Create(order))

	var orderCount int64
	assert.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)
}

func TestGORMProductRepository_Update_IdenticalValues(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMProductRepository(db)

	product := &models.Product{Name: "Parsnip", Price: 35.0, Category: "Crops"}
	assert.NoError(t, repo.Create(product))

	// Writing back unchanged values is still a successful update, even on
	// drivers whose affected-row count ignores no-op writes.
	assert.NoError(t, repo.Update(product))

	got, err := repo.GetByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Parsnip", got.Name)
	assert.Equal(t, 35.0, got.Price)
}

func TestGORMProductRepository_Update_MissingRow(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMProductRepository(db)

	err := repo.Update(&models.Product{ID: 99, Name: "Ghost", Price: 1.0})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
