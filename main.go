package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/db"
	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/ui"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

var (
	version = "0.1.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("AiMed v%s\n", version)
		os.Exit(0)
	}

	// Load or create default configuration
	actualConfigPath := *configPath
	if actualConfigPath == "" {
		var err error
		actualConfigPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create default config: %v\n", err)
			os.Exit(1)
		}
	}
	config, err := utils.LoadConfig(actualConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.GetLogPath(), config.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting AiMed v%s", version)
	logger.Info("Using config file: %s", actualConfigPath)

	// Initialize profile database
	database, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("Database initialized: %s", config.Data.DBPath)
	logProfileKeys(logger, database)

	// The gateway reads the credential from the store on every request
	var store *session.Store
	client := api.NewClient(config.API.BaseURL,
		api.TokenFunc(func() string { return store.Token() }),
		api.WithLogger(logger.WithPrefix("api")),
	)
	store = session.NewStore(database, client.Auth, logger.WithPrefix("session"))

	// Create and run application
	app := ui.NewApp(config, actualConfigPath, database, client, store, logger)
	defer app.Cleanup()

	logger.Info("Application started")
	app.Run()
	logger.Info("Application stopped")
}

// logProfileKeys lists the stored profile keys at debug level; values may
// hold credentials and are never logged
func logProfileKeys(logger *utils.Logger, database *db.DB) {
	settings, err := database.ListSettings()
	if err != nil {
		logger.Warn("Failed to list profile settings: %v", err)
		return
	}
	keys := make([]string, 0, len(settings))
	for _, s := range settings {
		keys = append(keys, s.Key)
	}
	logger.Debug("Profile store keys: %s", strings.Join(keys, ", "))
}
