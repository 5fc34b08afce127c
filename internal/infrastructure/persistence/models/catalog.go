package models

import (
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for catalog categories
type CategoryModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
	}
}

// FromDomain populates the model from a domain Category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Description = c.Description
}

// CategoryModelFromDomain creates a CategoryModel from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}

// ProductModel is the persistence model for products
type ProductModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Country       string          `gorm:"type:varchar(100)"`
	Year          int             `gorm:"not null;default:0"`
	Model         string          `gorm:"type:varchar(100)"`
	ImageKey      string          `gorm:"type:varchar(255)"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0"`
	IsAvailable   bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		CategoryID:        m.CategoryID,
		Country:           m.Country,
		Year:              m.Year,
		Model:             m.Model,
		ImageKey:          m.ImageKey,
		StockQuantity:     m.StockQuantity,
		IsAvailable:       m.IsAvailable,
	}
}

// FromDomain populates the model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.CategoryID = p.CategoryID
	m.Country = p.Country
	m.Year = p.Year
	m.Model = p.Model
	m.ImageKey = p.ImageKey
	m.StockQuantity = p.StockQuantity
	m.IsAvailable = p.IsAvailable
}

// ProductModelFromDomain creates a ProductModel from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
