// Package main implements a standalone seed script that populates the
// storefront catalog with a realistic set of software products. It writes
// directly to PostgreSQL so it can run before the service is up.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type seedProduct struct {
	name         string
	description  string
	ptype        string
	category     string
	platform     string
	price        string
	pricingModel string
	tags         []string
	isBundle     bool
}

var products = []seedProduct{
	{
		name:         "Fleet Tracker",
		description:  "Real-time GPS fleet tracking for delivery teams.",
		ptype:        "mobile",
		category:     "logistics",
		platform:     "ios",
		price:        "499.00",
		pricingModel: "perpetual",
		tags:         []string{"gps", "fleet", "logistics"},
	},
	{
		name:         "Fleet Tracker for Android",
		description:  "Real-time GPS fleet tracking for delivery teams.",
		ptype:        "mobile",
		category:     "logistics",
		platform:     "android",
		price:        "499.00",
		pricingModel: "perpetual",
		tags:         []string{"gps", "fleet", "logistics"},
	},
	{
		name:         "Inventory Manager Pro",
		description:  "Warehouse inventory management with barcode scanning.",
		ptype:        "desktop",
		category:     "operations",
		platform:     "windows",
		price:        "899.00",
		pricingModel: "per_user",
		tags:         []string{"inventory", "warehouse"},
	},
	{
		name:         "Payroll Desk",
		description:  "Small-business payroll with tax filing exports.",
		ptype:        "desktop",
		category:     "finance",
		platform:     "macos",
		price:        "1299.00",
		pricingModel: "subscription",
		tags:         []string{"payroll", "accounting"},
	},
	{
		name:         "Field Service Suite",
		description:  "Scheduling, dispatch, and invoicing for field crews.",
		ptype:        "mobile",
		category:     "operations",
		platform:     "ios",
		price:        "2499.00",
		pricingModel: "subscription",
		tags:         []string{"scheduling", "dispatch", "invoicing"},
		isBundle:     true,
	},
	{
		name:         "Retail POS Terminal",
		description:  "Point-of-sale terminal software with offline mode.",
		ptype:        "desktop",
		category:     "retail",
		platform:     "windows",
		price:        "749.00",
		pricingModel: "perpetual",
		tags:         []string{"pos", "retail"},
	},
	{
		name:         "Clinic Scheduler",
		description:  "Appointment booking and reminders for clinics.",
		ptype:        "mobile",
		category:     "healthcare",
		platform:     "android",
		price:        "5999.00",
		pricingModel: "subscription",
		tags:         []string{"appointments", "healthcare"},
	},
}

func main() {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "storefront")
	pass := getEnv("POSTGRES_PASSWORD", "storefront_secret")
	db := getEnv("POSTGRES_DB", "storefront_db")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	const insert = `
		INSERT INTO products (id, name, description, type, category, platform,
			price, currency, pricing_model, image_url, tags, is_bundle, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'USD', $7, '', $8, $9, TRUE)
		ON CONFLICT (name) DO NOTHING`

	seeded := 0
	for _, p := range products {
		tag, err := pool.Exec(ctx, insert,
			p.name, p.description, p.ptype, p.category, p.platform,
			p.price, p.pricingModel, p.tags, p.isBundle,
		)
		if err != nil {
			log.Fatalf("insert product %q: %v", p.name, err)
		}
		seeded += int(tag.RowsAffected())
	}

	log.Printf("seeded %d products", seeded)
}
