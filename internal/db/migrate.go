package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/models"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceLine{},
	)
}

// Seed inserts demo customers and products when the tables are empty.
// Should be called after Migrate. Running it twice is a no-op.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Customer{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count customers: %w", err)
	}
	if count == 0 {
		if err := db.Create(seedCustomers()).Error; err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
	}

	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		if err := db.Create(seedProducts()).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}
	return nil
}

func seedCustomers() []models.Customer {
	return []models.Customer{
		{FirstName: "Ada", LastName: "Lovelace", Address: "12 rue des Lilas", ZipCode: "75011", City: "Paris", Country: "France", CountryCode: "FR"},
		{FirstName: "Alan", LastName: "Turing", Address: "3 King's Parade", ZipCode: "CB2 1SJ", City: "Cambridge", Country: "United Kingdom", CountryCode: "GB"},
		{FirstName: "Grace", LastName: "Hopper", Address: "45 Wall Street", ZipCode: "10005", City: "New York", Country: "United States", CountryCode: "US"},
		{FirstName: "Marie", LastName: "Curie", Address: "1 place du Panthéon", ZipCode: "75005", City: "Paris", Country: "France", CountryCode: "FR"},
		{FirstName: "Linus", LastName: "Torvalds", Address: "8 Mannerheimintie", ZipCode: "00100", City: "Helsinki", Country: "Finland", CountryCode: "FI"},
	}
}

func seedProducts() []models.Product {
	return []models.Product{
		models.NewProduct("Consulting", invoicelines.UnitHour, invoicelines.VATRate20, 90),
		models.NewProduct("Development", invoicelines.UnitDay, invoicelines.VATRate20, 550),
		models.NewProduct("Training", invoicelines.UnitDay, invoicelines.VATRate10, 400),
		models.NewProduct("Technical book", invoicelines.UnitPiece, invoicelines.VATRate5_5, 40),
		models.NewProduct("Export service", invoicelines.UnitPiece, invoicelines.VATRate0, 150),
	}
}
