package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vintora/storefront-api/internal/domain/auth"
	"github.com/vintora/storefront-api/internal/repository"
)

type seedProduct struct {
	Slug        string
	Title       string
	Image       string
	Price       decimal.Decimal
	CouponCode  string
	CouponType  string
	CouponValue decimal.Decimal
	CouponMin   decimal.Decimal
}

type seedKey struct {
	Key    string
	Name   string
	UserID string
	Scopes []string
}

func main() {
	var (
		databaseURL  string
		apiKeyPepper string
		customerKey  string
		staffKey     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STOREFRONT_API_KEY_PEPPER env)")
	flag.StringVar(&customerKey, "customer-key", "", "demo customer API key to seed (or STOREFRONT_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&staffKey, "staff-key", "", "demo staff API key to seed (or STOREFRONT_SEED_STAFF_KEY env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STOREFRONT_API_KEY_PEPPER")
	}
	if customerKey == "" {
		customerKey = os.Getenv("STOREFRONT_SEED_CUSTOMER_KEY")
	}
	if staffKey == "" {
		staffKey = os.Getenv("STOREFRONT_SEED_STAFF_KEY")
	}
	if customerKey == "" || staffKey == "" {
		slog.Error("demo API keys are required: set --customer-key and --staff-key (or the STOREFRONT_SEED_* env vars)")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKeyPepper, customerKey, staffKey); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper, customerKey, staffKey string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}

	keys := []seedKey{
		{Key: customerKey, Name: "Demo customer key", UserID: "demo-customer", Scopes: nil},
		{Key: staffKey, Name: "Demo staff key", UserID: "", Scopes: []string{"orders:*"}},
	}
	if err := seedAPIKeys(ctx, pool, keys, pepper); err != nil {
		return errors.Wrap(err, "seed api keys")
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, slug, title, image, price, published,
                      coupon_code, coupon_type, coupon_amount, coupon_min_subtotal, coupon_active)
VALUES ($1, $2, $3, $4, $5, TRUE, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $6 <> '')
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    coupon_code = EXCLUDED.coupon_code,
    coupon_type = EXCLUDED.coupon_type,
    coupon_amount = EXCLUDED.coupon_amount,
    coupon_min_subtotal = EXCLUDED.coupon_min_subtotal,
    coupon_active = EXCLUDED.coupon_active`

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	products := []seedProduct{
		{
			Slug:  "canvas-tote",
			Title: "Canvas Tote Bag",
			Image: "/images/canvas-tote.jpg",
			Price: decimal.NewFromFloat(24.50),
		},
		{
			Slug:        "walnut-desk-organizer",
			Title:       "Walnut Desk Organizer",
			Image:       "/images/walnut-desk-organizer.jpg",
			Price:       decimal.NewFromFloat(89.00),
			CouponCode:  "DESKTEN",
			CouponType:  "percent",
			CouponValue: decimal.NewFromInt(10),
		},
		{
			Slug:        "ceramic-mug-set",
			Title:       "Ceramic Mug Set",
			Image:       "/images/ceramic-mug-set.jpg",
			Price:       decimal.NewFromFloat(42.00),
			CouponCode:  "MUGLOVE",
			CouponType:  "fixed",
			CouponValue: decimal.NewFromInt(5),
			CouponMin:   decimal.NewFromInt(40),
		},
		{
			Slug:  "linen-throw-pillow",
			Title: "Linen Throw Pillow",
			Image: "/images/linen-throw-pillow.jpg",
			Price: decimal.NewFromFloat(31.75),
		},
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			uuid.NewString(), p.Slug, p.Title, p.Image, p.Price,
			p.CouponCode, p.CouponType, p.CouponValue, p.CouponMin,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}

		slog.Info("upserted product", slog.String("slug", p.Slug), slog.String("title", p.Title))
	}

	return nil
}

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, name, user_id, scopes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (key_hash) DO UPDATE SET
    name = EXCLUDED.name,
    user_id = EXCLUDED.user_id,
    scopes = EXCLUDED.scopes`

func seedAPIKeys(ctx context.Context, pool *pgxpool.Pool, keys []seedKey, pepper string) error {
	slog.Info("seeding demo API keys", slog.Int("count", len(keys)))

	for _, k := range keys {
		hash := auth.HashKey([]byte(pepper), k.Key)
		scopes := k.Scopes
		if scopes == nil {
			scopes = []string{}
		}

		_, err := pool.Exec(ctx, upsertAPIKeySQL, uuid.NewString(), hash, k.Name, k.UserID, scopes)
		if err != nil {
			return errors.Wrapf(err, "upsert api key %s", k.Name)
		}

		slog.Info("upserted API key", slog.String("name", k.Name))
	}

	return nil
}
