package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vintora/storefront-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// feedProduct is one line of the gzipped JSON-lines catalog feed.
type feedProduct struct {
	Slug      string
	Title     string
	Image     string
	Price     decimal.Decimal
	Published bool

	CouponCode string
	CouponType string
	CouponAmt  decimal.Decimal
	CouponMin  decimal.Decimal
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one feed file is required: catalog-import [flags] feed1.jsonl.gz ...")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, files []string, databaseURL string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Readers decode feed files concurrently; a single writer owns the
	// dedup filter and the upsert path. The bloom filter keeps slug dedup
	// memory-bounded on large feeds; a false positive only skips one row,
	// which a rerun of the importer picks back up.
	products := make(chan feedProduct, 1024)

	g, ctx := errgroup.WithContext(ctx)
	readers, ctx := errgroup.WithContext(ctx)

	for _, f := range files {
		readers.Go(readFeedFile(ctx, f, products))
	}
	g.Go(func() error {
		defer close(products)
		return readers.Wait()
	})
	g.Go(writeProducts(ctx, pool, products))

	return g.Wait()
}

// readFeedFile streams a gzipped JSON-lines feed and sends decoded products.
func readFeedFile(ctx context.Context, path string, out chan<- feedProduct) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			p, err := decodeProduct(line)
			if err != nil {
				return errors.Wrapf(err, "decode line %d of %s", count+1, path)
			}
			if p.Slug == "" || p.Title == "" {
				continue
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("read progress", slog.String("file", path), slog.Uint64("products", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("feed file complete", slog.String("file", path), slog.Uint64("products", count))
		return nil
	}
}

func decodeProduct(line []byte) (feedProduct, error) {
	var p feedProduct
	p.Published = true

	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "slug":
			v, err := d.Str()
			p.Slug = v
			return err
		case "title":
			v, err := d.Str()
			p.Title = v
			return err
		case "image":
			v, err := d.Str()
			p.Image = v
			return err
		case "price":
			return decodeDecimal(d, &p.Price)
		case "published":
			v, err := d.Bool()
			p.Published = v
			return err
		case "coupon":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "code":
					v, err := d.Str()
					p.CouponCode = v
					return err
				case "type":
					v, err := d.Str()
					p.CouponType = v
					return err
				case "amount":
					return decodeDecimal(d, &p.CouponAmt)
				case "minSubtotal":
					return decodeDecimal(d, &p.CouponMin)
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return feedProduct{}, err
	}

	return p, nil
}

func decodeDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	num, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(num.String())
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, slug, title, image, price, published,
                      coupon_code, coupon_type, coupon_amount, coupon_min_subtotal, coupon_active)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $7 <> '')
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    published = EXCLUDED.published,
    coupon_code = EXCLUDED.coupon_code,
    coupon_type = EXCLUDED.coupon_type,
    coupon_amount = EXCLUDED.coupon_amount,
    coupon_min_subtotal = EXCLUDED.coupon_min_subtotal,
    coupon_active = EXCLUDED.coupon_active`

// writeProducts upserts decoded products, skipping slugs already written.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, in <-chan feedProduct) func() error {
	return func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var written, skipped uint64

		for p := range in {
			if seen.TestString(p.Slug) {
				skipped++
				continue
			}
			seen.AddString(p.Slug)

			_, err := pool.Exec(ctx, upsertProductSQL,
				uuid.NewString(), p.Slug, p.Title, p.Image, p.Price, p.Published,
				p.CouponCode, p.CouponType, p.CouponAmt, p.CouponMin,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert product %s", p.Slug)
			}

			written++
			if written%progressEvery == 0 {
				slog.Info("write progress", slog.Uint64("written", written))
			}
		}

		slog.Info("write complete", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
		return nil
	}
}
