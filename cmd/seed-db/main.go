package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/repository"
)

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type itemJSON struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Category      string           `json:"category"`
	Label         string           `json:"label"`
	Slug          string           `json:"slug"`
	Image         string           `json:"image"`
}

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Items      []itemJSON     `json:"items"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
		demoUser    string
		demoPass    string
		tokenPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&demoUser, "demo-user", "", "demo account username to seed (or STORE_SEED_USER env)")
	flag.StringVar(&demoPass, "demo-password", "", "demo account password (or STORE_SEED_PASSWORD env)")
	flag.StringVar(&tokenPepper, "token-pepper", "", "HMAC pepper for session token hashing (or STORE_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if demoUser == "" {
		demoUser = os.Getenv("STORE_SEED_USER")
	}
	if demoPass == "" {
		demoPass = os.Getenv("STORE_SEED_PASSWORD")
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("STORE_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, demoUser, demoPass, tokenPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, demoUser, demoPass, tokenPepper string) error {
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

	if err := seedCatalog(ctx, repository.NewCatalogRepository(pool), catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if demoUser != "" {
		users := repository.NewUserRepository(pool)
		tokens := repository.NewTokenRepository(pool)
		if err := seedDemoUser(ctx, users, tokens, demoUser, demoPass, tokenPepper); err != nil {
			return errors.Wrap(err, "seed demo user")
		}
	}

	return nil
}

func seedCatalog(ctx context.Context, repo *repository.CatalogRepository, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var c catalogJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting categories", slog.Int("count", len(c.Categories)))

	categoryIDs := make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		if err := repo.UpsertCategory(ctx, &catalog.Category{
			ID:   cat.ID,
			Name: cat.Name,
			Slug: cat.Slug,
		}); err != nil {
			return errors.Wrapf(err, "upsert category %s", cat.Slug)
		}
		categoryIDs[cat.Slug] = cat.ID
	}

	slog.Info("upserting items", slog.Int("count", len(c.Items)))

	for _, i := range c.Items {
		categoryID, ok := categoryIDs[i.Category]
		if !ok {
			return errors.Errorf("item %s references unknown category %q", i.Slug, i.Category)
		}
		if err := repo.UpsertItem(ctx, &catalog.Item{
			ID:            i.ID,
			Title:         i.Title,
			Description:   i.Description,
			Price:         i.Price,
			DiscountPrice: i.DiscountPrice,
			CategoryID:    categoryID,
			Label:         catalog.Label(i.Label),
			Slug:          i.Slug,
			Image:         i.Image,
		}); err != nil {
			return errors.Wrapf(err, "upsert item %s", i.Slug)
		}

		slog.Info("upserted item", slog.String("slug", i.Slug), slog.String("title", i.Title))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding demo coupons")

	coupons := []coupon.Coupon{
		{ID: uuid.New().String(), Code: "WELCOME10", Amount: decimal.NewFromInt(10)},
		{ID: uuid.New().String(), Code: "SUMMER20", Amount: decimal.NewFromInt(20)},
	}

	for _, c := range coupons {
		if err := repo.Upsert(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("amount", c.Amount.String()))
	}

	return nil
}

func seedDemoUser(ctx context.Context, users *repository.UserRepository, tokens *repository.TokenRepository, username, password, pepper string) error {
	if len(password) < 8 {
		return errors.New("demo password must be at least 8 characters")
	}

	slog.Info("seeding demo user", slog.String("username", username))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			slog.Info("demo user already exists, skipping", slog.String("username", username))
			return nil
		}
		return errors.Wrap(err, "create user")
	}
	if err := users.CreateProfile(ctx, &user.Profile{UserID: u.ID}); err != nil {
		return errors.Wrap(err, "create profile")
	}

	token, err := auth.NewToken()
	if err != nil {
		return errors.Wrap(err, "mint token")
	}
	if err := tokens.Create(ctx, &auth.TokenInfo{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: auth.HashToken([]byte(pepper), token),
		Name:      "seeded demo token",
		Active:    true,
	}); err != nil {
		return errors.Wrap(err, "create token")
	}

	// Printed once; only the hash is stored.
	slog.Info("seeded demo session token", slog.String("token", token))

	return nil
}
