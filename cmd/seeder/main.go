package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/locvowork/workforce_dashboard/internal/bootstrap"
	"github.com/locvowork/workforce_dashboard/internal/config"
	"github.com/locvowork/workforce_dashboard/internal/database"
	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/loader"
	"github.com/locvowork/workforce_dashboard/internal/logger"
)

func main() {
	// Define flags
	action := flag.String("action", "seed", "Action to perform: seed, clear")
	target := flag.String("target", "", "Where to write: csv, postgres, sqlite (default DATA_SOURCE)")
	out := flag.String("out", "./data", "Output directory of the csv target")
	preset := flag.String("preset", "medium", "Data preset: small, medium, large")
	workers := flag.Int("workers", 0, "Number of workers (overrides preset)")
	bonuses := flag.Int("bonuses", 0, "Max bonuses per worker (overrides preset)")
	titles := flag.Int("titles", 0, "Max titles per worker (overrides preset)")
	seed := flag.Int64("seed", 1, "Random seed; the same seed yields the same data")
	envFile := flag.String("env", "", "Environment file")

	flag.Parse()

	ctx := context.Background()

	fmt.Println("🚀 Workforce Data Seeder")
	fmt.Println(strings.Repeat("=", 50))

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := config.LoadEnvConfig(envFiles...); err != nil {
		log.Fatalf("❌ Failed to load env config: %v", err)
	}
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)

	if *target == "" {
		*target = config.DefaultEnvConfig.DATA_SOURCE
	}

	switch *action {
	case "seed":
		ds := generate(*preset, *workers, *bonuses, *titles, *seed)
		performSeed(ctx, *target, *out, ds)

	case "clear":
		performClear(ctx, *target)

	default:
		fmt.Printf("❌ Unknown action: %s\n", *action)
		flag.PrintDefaults()
		return
	}

	fmt.Println("\n✅ Done!")
}

func generate(preset string, workers, bonuses, titles int, seed int64) *domain.Dataset {
	numWorkers, maxBonuses, maxTitles := database.GetPresetConfig(database.SeedPreset(preset))
	if workers > 0 {
		numWorkers = workers
	}
	if bonuses > 0 {
		maxBonuses = bonuses
	}
	if titles > 0 {
		maxTitles = titles
	}
	fmt.Printf("📊 Generating %d workers (up to %d bonuses, %d titles each), seed %d\n",
		numWorkers, maxBonuses, maxTitles, seed)

	ds := database.GenerateDataset(numWorkers, maxBonuses, maxTitles, seed)
	fmt.Printf("   %d workers, %d bonuses, %d titles\n", len(ds.Workers), len(ds.Bonuses), len(ds.Titles))
	return ds
}

func performSeed(ctx context.Context, target, out string, ds *domain.Dataset) {
	if target == "csv" {
		if err := loader.WriteCSV(out, ds); err != nil {
			log.Fatalf("❌ Writing csv failed: %v", err)
		}
		fmt.Printf("📁 Wrote %s, %s and %s to %s\n", loader.WorkerFile, loader.BonusFile, loader.TitleFile, out)
		return
	}

	db, dialect := connect(ctx, target)
	defer db.Close()

	if err := database.NewDataSeeder(db, dialect).SeedData(ctx, ds); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}

func performClear(ctx context.Context, target string) {
	if target == "csv" {
		log.Fatal("❌ clear is only supported for database targets")
	}

	fmt.Println("⚠️  This will delete all workforce data!")
	fmt.Print("Continue? (yes/no): ")

	var response string
	fmt.Scanln(&response)

	if response != "yes" {
		fmt.Println("Cancelled.")
		return
	}

	db, dialect := connect(ctx, target)
	defer db.Close()

	if err := database.NewDataSeeder(db, dialect).ClearData(ctx); err != nil {
		log.Fatalf("❌ Clear failed: %v", err)
	}
}

func connect(ctx context.Context, target string) (*sql.DB, database.Dialect) {
	dialect := database.Dialect(target)
	fmt.Printf("📡 Connecting to %s...\n", dialect)
	db, err := database.Open(ctx, dialect, bootstrap.DatabaseConfig())
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	return db, dialect
}
