package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kasirhub/backend-pos/internal/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedStaff(ctx, pool)
	seedMenu(ctx, pool)
	seedRates(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) {
	staff := []struct {
		Name     string
		Username string
		Role     string
		Password string
	}{
		{"Ibu Ratna", "ratna", auth.RoleManager, "manager123"},
		{"Budi Santoso", "budi", auth.RoleCashier, "kasir123"},
		{"Siti Aminah", "siti", auth.RoleCashier, "kasir123"},
	}

	log.Println("Seeding Staff...")
	for _, s := range staff {
		hash, err := auth.HashPassword(s.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", s.Username, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO staff (name, username, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING`,
			s.Name, s.Username, hash, s.Role)
		if err != nil {
			log.Printf("Failed to seed staff %s: %v", s.Username, err)
		}
	}
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool) {
	items := []struct {
		ID       string
		Name     string
		Category string
		Price    int64
	}{
		{"nasi-goreng-spesial", "Nasi Goreng Spesial", "mains", 28000},
		{"mie-goreng-jawa", "Mie Goreng Jawa", "mains", 25000},
		{"ayam-bakar-madu", "Ayam Bakar Madu", "mains", 32000},
		{"sate-ayam", "Sate Ayam (10 tusuk)", "mains", 30000},
		{"gado-gado", "Gado-Gado", "mains", 22000},
		{"soto-ayam", "Soto Ayam", "mains", 24000},
		{"tahu-goreng", "Tahu Goreng", "sides", 10000},
		{"tempe-mendoan", "Tempe Mendoan", "sides", 12000},
		{"kerupuk-udang", "Kerupuk Udang", "sides", 8000},
		{"es-teh-manis", "Es Teh Manis", "drinks", 6000},
		{"es-jeruk", "Es Jeruk", "drinks", 8000},
		{"kopi-tubruk", "Kopi Tubruk", "drinks", 10000},
		{"jus-alpukat", "Jus Alpukat", "drinks", 15000},
		{"es-campur", "Es Campur", "desserts", 18000},
		{"pisang-goreng", "Pisang Goreng", "desserts", 12000},
	}

	log.Println("Seeding Menu...")
	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO menu_items (id, name, category, unit_price, active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit_price = EXCLUDED.unit_price`,
			it.ID, it.Name, it.Category, it.Price)
		if err != nil {
			log.Printf("Failed to seed menu item %s: %v", it.Name, err)
		}
	}
}

func seedRates(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding Rates...")
	_, err := pool.Exec(ctx, `
		INSERT INTO rate_settings (id, discount_pct, charge_pct, tax_pct)
		VALUES (1, 0, 5, 11)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		log.Printf("Failed to seed rate settings: %v", err)
	}
}
