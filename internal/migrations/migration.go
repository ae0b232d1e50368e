package migrations

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Options struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	SeedMenu      bool
}

// RunMigrations migrates the schema and creates default data. It is safe to
// run against a live database: nothing is dropped and seeding is skipped
// where data already exists.
func RunMigrations(ctx context.Context, db *gorm.DB, opts Options, logger *logrus.Logger) error {
	logger.Info("Running database migrations...")
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	userService := services.NewUserService(repository.NewUserRepository(db))
	catalogRepo := repository.NewCatalogRepository(db)

	if err := SeedDefaults(ctx, userService, catalogRepo, opts, logger); err != nil {
		logger.WithError(err).Warn("Failed to create default data")
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaults creates the staff account and, when the menu is empty, the
// sample menu.
func SeedDefaults(ctx context.Context, users services.UserService, catalog repository.CatalogRepository, opts Options, logger *logrus.Logger) error {
	if opts.AdminEmail != "" {
		name := opts.AdminName
		if name == "" {
			name = "Admin"
		}
		_, err := users.CreateStaff(ctx, name, opts.AdminEmail, opts.AdminPassword)
		switch {
		case errors.Is(err, services.ErrConflict):
			logger.WithField("email", opts.AdminEmail).Info("Staff account already exists")
		case err != nil:
			return fmt.Errorf("failed to create staff account: %w", err)
		default:
			logger.WithField("email", opts.AdminEmail).Info("Staff account created")
		}
	}

	if !opts.SeedMenu {
		return nil
	}
	count, err := catalog.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count menu items: %w", err)
	}
	if count > 0 {
		logger.WithField("items", count).Info("Menu already populated")
		return nil
	}

	menu := DefaultMenu()
	for i := range menu {
		if err := catalog.Create(ctx, &menu[i]); err != nil {
			return fmt.Errorf("failed to create menu item %q: %w", menu[i].Name, err)
		}
	}
	logger.WithField("items", len(menu)).Info("Sample menu created")
	return nil
}

func DefaultMenu() []models.CatalogItem {
	item := func(name, description, price string, category models.Category, ingredients ...string) models.CatalogItem {
		return models.CatalogItem{
			Name:        name,
			Description: description,
			Price:       decimal.RequireFromString(price),
			Category:    category,
			Ingredients: ingredients,
			IsAvailable: true,
		}
	}
	special := func(it models.CatalogItem) models.CatalogItem { it.IsSpecial = true; return it }
	veg := func(it models.CatalogItem) models.CatalogItem { it.IsVegetarian = true; return it }
	spicy := func(level int, it models.CatalogItem) models.CatalogItem { it.SpicyLevel = level; return it }

	return []models.CatalogItem{
		item("Salmon Nigiri", "Fresh Atlantic salmon on seasoned rice", "6.99", models.CategoryNigiri, "Salmon", "Sushi Rice", "Wasabi"),
		item("Tuna Nigiri", "Premium bluefin tuna on seasoned rice", "7.99", models.CategoryNigiri, "Bluefin Tuna", "Sushi Rice", "Wasabi"),
		item("Yellowtail Nigiri", "Buttery yellowtail with a hint of ponzu", "8.49", models.CategoryNigiri, "Yellowtail", "Sushi Rice", "Ponzu", "Scallion"),
		veg(item("Avocado Nigiri", "Ripe avocado on seasoned rice", "5.99", models.CategoryNigiri, "Avocado", "Sushi Rice")),
		item("Salmon Sashimi", "8 pieces of Atlantic salmon", "16.99", models.CategorySashimi, "Salmon", "Daikon", "Shiso Leaf"),
		item("Tuna Sashimi", "8 pieces of bluefin tuna", "18.99", models.CategorySashimi, "Bluefin Tuna", "Daikon", "Wasabi"),
		item("California Roll", "Crab, avocado and cucumber", "10.99", models.CategoryMaki, "Imitation Crab", "Avocado", "Cucumber", "Rice", "Nori"),
		spicy(2, item("Spicy Tuna Roll", "Tuna with spicy mayo and cucumber", "12.99", models.CategoryMaki, "Tuna", "Spicy Mayo", "Cucumber", "Rice", "Nori")),
		special(item("Dragon Roll", "Eel and cucumber topped with avocado and eel sauce", "16.99", models.CategoryMaki, "Eel", "Cucumber", "Avocado", "Eel Sauce")),
		veg(item("Vegetable Roll", "Seasonal vegetables rolled in nori", "8.99", models.CategoryMaki, "Cucumber", "Avocado", "Carrot", "Rice", "Nori")),
		special(item("Omakase Selection", "Chef's choice of the day's best fish", "49.99", models.CategorySpecial, "Chef's Selection")),
		spicy(1, special(item("361 Signature Roll", "House roll with seared salmon and truffle", "24.99", models.CategorySpecial, "Salmon", "Truffle", "Avocado", "Rice"))),
		veg(item("Edamame", "Steamed soybeans with sea salt", "5.99", models.CategoryAppetizer, "Edamame", "Sea Salt")),
		item("Gyoza", "Pan-fried pork dumplings", "7.99", models.CategoryAppetizer, "Pork", "Cabbage", "Garlic"),
		veg(item("Mochi Ice Cream", "Assorted mochi ice cream", "6.99", models.CategoryDessert, "Rice Flour", "Ice Cream")),
		veg(item("Green Tea Ice Cream", "Matcha ice cream", "5.99", models.CategoryDessert, "Matcha", "Cream")),
		veg(item("Sake", "Warm or chilled junmai sake", "12.99", models.CategoryDrink, "Rice")),
		veg(item("Green Tea", "Hot sencha", "3.99", models.CategoryDrink, "Sencha")),
	}
}
