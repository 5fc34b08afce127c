package testutil

import (
	"path/filepath"
	"testing"

	"github.com/flowershop/storefront/internal/domain/cart"
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password of every fixture user
const TestPassword = "secret-pass"

// NewSQLiteDB opens a file-backed SQLite database in a temp dir with the
// full schema migrated. A single connection keeps transactions serialized.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "storefront.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// CreateUser inserts a customer (or staff member) with TestPassword
func CreateUser(t *testing.T, db *gorm.DB, username string, staff bool) *identity.User {
	t.Helper()
	identity.SetPasswordCost(bcrypt.MinCost)
	name := identity.PersonName{First: "Анна", Last: "Петрова", Patronymic: "Ивановна"}
	var (
		u   *identity.User
		err error
	)
	if staff {
		u, err = identity.NewStaffUser(username, username+"@example.com", TestPassword, name)
	} else {
		u, err = identity.NewUser(username, username+"@example.com", TestPassword, name)
	}
	require.NoError(t, err)
	require.NoError(t, db.Create(models.UserModelFromDomain(u)).Error)
	return u
}

// CreateCategory inserts a category
func CreateCategory(t *testing.T, db *gorm.DB, name string) *catalog.Category {
	t.Helper()
	c, err := catalog.NewCategory(name, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.CategoryModelFromDomain(c)).Error)
	return c
}

// CreateProduct inserts an available product
func CreateProduct(t *testing.T, db *gorm.DB, category *catalog.Category, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{
		Name:       name,
		CategoryID: category.ID,
		Country:    "Нидерланды",
		Year:       2024,
	}, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	p.ClearDomainEvents()
	require.NoError(t, db.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

// AddToCart inserts a cart entry directly, bypassing stock checks
func AddToCart(t *testing.T, db *gorm.DB, user *identity.User, product *catalog.Product, quantity int) *cart.CartItem {
	t.Helper()
	item, err := cart.NewCartItem(user.ID, product.ID, quantity)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.CartItemModelFromDomain(item)).Error)
	return item
}

// ReloadProduct reads the current product row
func ReloadProduct(t *testing.T, db *gorm.DB, product *catalog.Product) *catalog.Product {
	t.Helper()
	var m models.ProductModel
	require.NoError(t, db.First(&m, "id = ?", product.ID).Error)
	return m.ToDomain()
}

// CountRows counts the rows of a model's table
func CountRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
