// Command seed populates a development database with two kebeles, ten
// farmers, and their subscriptions so the portal has something to advise on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/savator12/agriadapt/internal/adapter/gormstore"
	"github.com/savator12/agriadapt/internal/domain"
)

func main() {
	driver := flag.String("driver", envOrDefault("DATABASE_DRIVER", "sqlite"), "database driver (postgres or sqlite)")
	dsn := flag.String("dsn", envOrDefault("DATABASE_DSN", "portal.db"), "database connection string")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(context.Background(), *driver, *dsn, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, driver, dsn string, logger *slog.Logger) error {
	store, err := gormstore.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	now := time.Now().UTC()

	kebeles := []domain.Kebele{
		{
			ID:        uuid.New(),
			Name:      "Kebele 01",
			Code:      "K01",
			Woreda:    "Adama",
			Zone:      "East Shoa",
			Latitude:  ptr(8.5464),
			Longitude: ptr(39.2684),
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			Name:      "Kebele 02",
			Code:      "K02",
			Woreda:    "Debre Birhan",
			Zone:      "North Shoa",
			Latitude:  ptr(9.6796),
			Longitude: ptr(39.5326),
			CreatedAt: now,
		},
	}
	for i := range kebeles {
		if err := store.CreateKebele(ctx, &kebeles[i]); err != nil {
			return fmt.Errorf("create kebele %s: %w", kebeles[i].Code, err)
		}
	}

	crops := []string{"teff", "maize", "wheat", "sorghum", "barley"}
	soils := []string{"clay", "loam", "sand", "black soil"}
	farmTypes := []domain.FarmType{domain.FarmTypeLivestock, domain.FarmTypeCrop, domain.FarmTypeMixed}
	waterModes := []domain.WaterAccess{domain.WaterAccessRainFed, domain.WaterAccessIrrigation, domain.WaterAccessMixed}

	var farmers, subscriptions int
	for i := 1; i <= 10; i++ {
		language := domain.LanguageAmharic
		if i%2 == 0 {
			language = domain.LanguageOromo
		}
		kebele := kebeles[1]
		if i <= 5 {
			kebele = kebeles[0]
		}

		farmer := domain.FarmerProfile{
			ID:          uuid.New(),
			FullName:    fmt.Sprintf("Farmer %d", i),
			Phone:       fmt.Sprintf("+2519112345%02d", i),
			FarmType:    farmTypes[i%3],
			CropType:    ptr(crops[i%5]),
			SoilType:    ptr(soils[i%4]),
			WaterAccess: waterModes[i%3],
			FarmSizeHa:  ptr(0.5 + float64(i)*0.75),
			KebeleID:    kebele.ID,
			Consent:     i <= 8,
			Language:    language,
			CreatedAt:   now,
		}
		if err := store.CreateFarmer(ctx, &farmer); err != nil {
			return fmt.Errorf("create farmer %d: %w", i, err)
		}
		farmers++

		if !farmer.Consent {
			continue
		}
		plan := "PREMIUM"
		if i <= 5 {
			plan = "FREE"
		}
		sub := domain.Subscription{
			ID:        uuid.New(),
			FarmerID:  farmer.ID,
			Plan:      plan,
			Status:    domain.SubscriptionActive,
			CreatedAt: now,
		}
		if err := store.CreateSubscription(ctx, &sub); err != nil {
			return fmt.Errorf("create subscription for farmer %d: %w", i, err)
		}
		subscriptions++
	}

	logger.Info("seed complete",
		"kebeles", len(kebeles),
		"farmers", farmers,
		"subscriptions", subscriptions)
	return nil
}

func ptr[T any](v T) *T { return &v }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
