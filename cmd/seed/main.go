package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"shopcore/internal/config"
	"shopcore/internal/db"
	"shopcore/internal/model"
	"shopcore/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Invoice{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	if count, err := userRepo.Count(ctx); err != nil {
		log.Fatalf("Failed to count users: %v", err)
	} else if count > 0 {
		log.Printf("Database already seeded (%d users), nothing to do", count)
		return
	}

	seedUsers(ctx, userRepo)
	categories := seedCategories(ctx, categoryRepo)
	seedProducts(ctx, productRepo, categories)

	log.Println("Seed completed")
}

func seedUsers(ctx context.Context, repo repository.UserRepository) {
	users := []struct {
		firstName, lastName, email, password string
		role                                 model.Role
	}{
		{"Alice", "Durand", "admin@shopcore.local", "admin-password", model.RoleAdmin},
		{"Bruno", "Lefevre", "keeper@shopcore.local", "keeper-password", model.RoleStoreKeeper},
		{"Chloe", "Moreau", "compta@shopcore.local", "compta-password", model.RoleCompta},
		{"Claire", "Martin", "claire@example.com", "customer-password", model.RoleUser},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), 10)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.email, err)
		}
		user := &model.User{
			FirstName:    u.firstName,
			LastName:     u.lastName,
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
			IsVerified:   true,
		}
		if err := repo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", u.email, err)
		}
		log.Printf("Created user %s (%s)", u.email, u.role)
	}
}

func seedCategories(ctx context.Context, repo repository.CategoryRepository) map[string]uint {
	categories := []model.Category{
		{Name: "Chaussures", Slug: "chaussures", IsActive: true},
		{Name: "Sacs", Slug: "sacs", IsActive: true},
		{Name: "Accessoires", Slug: "accessoires", IsActive: true},
	}

	ids := make(map[string]uint, len(categories))
	for i := range categories {
		if err := repo.Create(ctx, &categories[i]); err != nil {
			log.Fatalf("Failed to create category %s: %v", categories[i].Slug, err)
		}
		ids[categories[i].Slug] = categories[i].ID
		log.Printf("Created category %s", categories[i].Name)
	}
	return ids
}

func seedProducts(ctx context.Context, repo repository.ProductRepository, categories map[string]uint) {
	sale := decimal.RequireFromString("79.90")
	shoes := categories["chaussures"]
	bags := categories["sacs"]

	products := []model.Product{
		{
			Name:          "Chaussure Trail GTX",
			Description:   "Chaussure de trail imperméable pour terrains techniques",
			Price:         decimal.RequireFromString("99.90"),
			SalePrice:     &sale,
			IsOnSale:      true,
			StockQuantity: 25,
			Images:        model.ImageList{{URL: "https://cdn.shopcore.local/trail-gtx.jpg", IsPrimary: true}},
			Status:        model.ProductStatusActive,
			IsActive:      true,
			CategoryID:    &shoes,
		},
		{
			Name:          "Sac de randonnée 20L",
			Description:   "Sac léger avec poches latérales et housse de pluie",
			Price:         decimal.RequireFromString("49.00"),
			StockQuantity: 40,
			Images:        model.ImageList{{URL: "https://cdn.shopcore.local/sac-20l.jpg", IsPrimary: true}},
			Status:        model.ProductStatusActive,
			IsActive:      true,
			CategoryID:    &bags,
		},
		{
			Name:          "Gourde isotherme 750ml",
			Description:   "Gourde inox double paroi, garde le froid 24h",
			Price:         decimal.RequireFromString("24.50"),
			StockQuantity: 60,
			Status:        model.ProductStatusActive,
			IsActive:      true,
		},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.Fatalf("Failed to create product %s: %v", products[i].Name, err)
		}
		log.Printf("Created product %s", products[i].Name)
	}
}
