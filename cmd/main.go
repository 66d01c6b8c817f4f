package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"

	"github.com/recgfi/dataset/config"
	"github.com/recgfi/dataset/internal/dataset"
	"github.com/recgfi/dataset/internal/db"
	"github.com/recgfi/dataset/internal/labels"
	"github.com/recgfi/dataset/internal/logging"
	"github.com/recgfi/dataset/internal/text"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "config.json", "Path to configuration file")
	createConfig := flag.Bool("init", false, "Create a default configuration file if it doesn't exist")
	updateRepo := flag.String("repo", "", "Update the dataset for a specific repository (format: owner/name)")
	updateAll := flag.Bool("all", false, "Update the dataset for all repositories")
	sinceFlag := flag.String("since", "", "Only consider issues resolved or updated at or after this time (RFC3339 or YYYY-MM-DD)")
	login := flag.String("login", "", "Actor identity recorded in the build log")
	flag.Parse()

	// Create default configuration if requested
	if *createConfig {
		if err := config.CreateDefaultConfig(*configPath); err != nil {
			fatal(nil, "failed to create default configuration", err)
		}
		fmt.Printf("Created default configuration at %s\n", *configPath)
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(nil, "failed to load configuration", err)
	}

	logger, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fatal(nil, "failed to set up logging", err)
	}
	defer logging.CloseFile()

	if *updateRepo == "" && !*updateAll {
		fmt.Println("RecGFI dataset builder")
		fmt.Println("----------------------")
		fmt.Println("Use -repo owner/name to update the dataset for one repository")
		fmt.Println("Use -all to update the dataset for all repositories")
		fmt.Println("Use -since 2020-01-01 to bound the update to recent issues")
		fmt.Println("Use -init to create a default configuration file")
		fmt.Println("Use -config path/to/config.json to specify a custom configuration file")
		fmt.Println()
		fmt.Printf("The database path can be overridden via the %s environment variable\n", config.EnvDatabasePath)
		return
	}

	since, err := parseSince(*sinceFlag)
	if err != nil {
		fatal(logger, "invalid -since value", err)
	}

	// Initialize database
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		fatal(logger, "failed to initialize database", err)
	}

	lemmatizer, err := golem.New(en.New())
	if err != nil {
		fatal(logger, "failed to load lemmatizer", err)
	}
	categorizer, err := labels.NewCategorizer(lemmatizer)
	if err != nil {
		fatal(logger, "failed to load label rules", err)
	}

	builder := dataset.NewBuilder(database, categorizer, text.Scorer{}, logger)
	updater := dataset.NewUpdater(database, builder, logger)
	updater.SetWorkers(cfg.Workers)
	if lockMaxAge, err := cfg.LockDuration(); err == nil {
		updater.SetLockMaxAge(lockMaxAge)
	}

	ctx := context.Background()
	startTime := time.Now()

	if *updateRepo != "" {
		owner, name, err := parseRepositoryString(*updateRepo)
		if err != nil {
			fatal(logger, "invalid repository format", err)
		}

		logger.Info("updating repository dataset", "owner", owner, "name", name)
		if err := updater.UpdateRepo(ctx, owner, name, since, *login); err != nil {
			fatal(logger, "failed to update repository dataset", err)
		}
	} else {
		logger.Info("updating dataset for all repositories")
		if err := updater.UpdateAll(ctx, since); err != nil {
			fatal(logger, "failed to update dataset", err)
		}
	}

	logger.Info("update completed", "duration", time.Since(startTime))
}

// parseSince accepts RFC3339 or a plain date; empty means unbounded.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// parseRepositoryString parses a repository string in the format "owner/name"
func parseRepositoryString(repoStr string) (string, string, error) {
	parts := strings.Split(repoStr, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository format, expected 'owner/name', got '%s'", repoStr)
	}
	return parts[0], parts[1], nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	if logger != nil {
		logger.Error(msg, "error", err)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	}
	logging.CloseFile()
	os.Exit(1)
}
