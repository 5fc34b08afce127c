package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const adminUsername = "admin"

type categorySeed struct {
	Name        string
	Description string
}

type productSeed struct {
	Name        string
	Description string
	Price       string
	Category    string
	Country     string
	Year        int
	Model       string
	Stock       int
}

var demoCategories = []categorySeed{
	{Name: "Розы", Description: "Классические розы различных сортов и цветов"},
	{Name: "Тюльпаны", Description: "Яркие весенние тюльпаны"},
	{Name: "Лилии", Description: "Элегантные лилии с нежным ароматом"},
	{Name: "Хризантемы", Description: "Осенние хризантемы различных оттенков"},
	{Name: "Герберы", Description: "Яркие и жизнерадостные герберы"},
}

var demoProducts = []productSeed{
	{Name: "Букет красных роз", Description: "Классический букет из 25 красных роз с зеленью", Price: "2500.00", Category: "Розы", Country: "Эквадор", Year: 2024, Model: "Rosa Red Classic", Stock: 10},
	{Name: "Букет белых роз", Description: "Элегантный букет из 15 белых роз", Price: "1800.00", Category: "Розы", Country: "Эквадор", Year: 2024, Model: "Rosa White Elegant", Stock: 8},
	{Name: "Тюльпаны разноцветные", Description: "Яркий букет из разноцветных тюльпанов", Price: "1200.00", Category: "Тюльпаны", Country: "Нидерланды", Year: 2024, Model: "Tulip Mixed Colors", Stock: 15},
	{Name: "Лилии белые", Description: "Нежные белые лилии с зеленью", Price: "2200.00", Category: "Лилии", Country: "Россия", Year: 2024, Model: "Lily White Pure", Stock: 6},
	{Name: "Хризантемы осенние", Description: "Теплые осенние хризантемы в оранжевых тонах", Price: "1500.00", Category: "Хризантемы", Country: "Россия", Year: 2024, Model: "Chrysanthemum Autumn", Stock: 12},
	{Name: "Герберы радужные", Description: "Яркие герберы всех цветов радуги", Price: "1800.00", Category: "Герберы", Country: "Колумбия", Year: 2024, Model: "Gerbera Rainbow", Stock: 9},
}

// seedReport counts what a run created
type seedReport struct {
	AdminCreated      bool
	CategoriesCreated int
	ProductsCreated   int
}

// seeder fills an empty shop with the demo catalog and an admin account.
// Running it twice creates nothing new.
type seeder struct {
	users      identity.UserRepository
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	logger     *zap.Logger
}

// Run creates the admin, categories and products that do not exist yet
func (s *seeder) Run(ctx context.Context, adminPassword string) (*seedReport, error) {
	report := &seedReport{}

	created, err := s.ensureAdmin(ctx, adminPassword)
	if err != nil {
		return nil, err
	}
	report.AdminCreated = created

	categories, err := s.ensureCategories(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProducts(ctx, categories, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *seeder) ensureAdmin(ctx context.Context, password string) (bool, error) {
	exists, err := s.users.ExistsByUsername(ctx, adminUsername)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	admin, err := identity.NewStaffUser(adminUsername, "admin@example.com", password,
		identity.PersonName{First: "Администратор", Last: "Системы"})
	if err != nil {
		return false, fmt.Errorf("build admin user: %w", err)
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	s.logger.Info("Created admin account", zap.String("username", adminUsername))
	return true, nil
}

func (s *seeder) ensureCategories(ctx context.Context, report *seedReport) (map[string]*catalog.Category, error) {
	existing, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*catalog.Category, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	for _, seed := range demoCategories {
		if _, ok := byName[seed.Name]; ok {
			continue
		}
		c, err := catalog.NewCategory(seed.Name, seed.Description)
		if err != nil {
			return nil, err
		}
		if err := s.categories.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("create category %s: %w", seed.Name, err)
		}
		byName[c.Name] = c
		report.CategoriesCreated++
		s.logger.Info("Created category", zap.String("name", c.Name))
	}
	return byName, nil
}

func (s *seeder) ensureProducts(ctx context.Context, categories map[string]*catalog.Category, report *seedReport) error {
	existing, err := s.productNames(ctx)
	if err != nil {
		return err
	}

	for _, seed := range demoProducts {
		if _, ok := existing[strings.ToLower(seed.Name)]; ok {
			continue
		}
		category, ok := categories[seed.Category]
		if !ok {
			return shared.NewDomainErrorf("NOT_FOUND", "Category %s is missing", seed.Category)
		}
		p, err := catalog.NewProduct(catalog.ProductDetails{
			Name:        seed.Name,
			Description: seed.Description,
			CategoryID:  category.ID,
			Country:     seed.Country,
			Year:        seed.Year,
			Model:       seed.Model,
		}, decimal.RequireFromString(seed.Price), seed.Stock)
		if err != nil {
			return err
		}
		p.ClearDomainEvents()
		if err := s.products.Save(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", seed.Name, err)
		}
		existing[strings.ToLower(p.Name)] = struct{}{}
		report.ProductsCreated++
		s.logger.Info("Created product", zap.String("name", p.Name), zap.Int("stock", p.StockQuantity))
	}
	return nil
}

// productNames pages through the whole catalog, hidden products included
func (s *seeder) productNames(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	filter := catalog.ProductFilter{IncludeUnavailable: true}
	filter.PageSize = 100
	for filter.Page = 1; ; filter.Page++ {
		page, total, err := s.products.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			names[strings.ToLower(p.Name)] = struct{}{}
		}
		if len(page) == 0 || int64(filter.Page*filter.PageSize) >= total {
			return names, nil
		}
	}
}
