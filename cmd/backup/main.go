package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"reelplay/internal/config"
	"reelplay/internal/database"
	"reelplay/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	exportConfig := exportCmd.String("config", "config.toml", "path to TOML config file")

	importInput := importCmd.String("input", "", "input file path (required)")
	importClear := importCmd.Bool("clear", false, "delete existing data before import (destructive)")
	importConfig := importCmd.String("config", "config.toml", "path to TOML config file")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		backup := newBackupService(*exportConfig, log)
		handleExport(backup, *exportOutput, log)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		backup := newBackupService(*importConfig, log)
		handleImport(backup, *importInput, *importClear, log)

	default:
		printUsage()
		os.Exit(1)
	}
}

func newBackupService(configPath string, log *logrus.Logger) *service.BackupService {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if err := db.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	return service.NewBackupService(db, log)
}

func handleExport(backup *service.BackupService, outputPath string, log *logrus.Logger) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.WithError(err).Fatal("failed to create output directory")
		}
	}

	log.WithField("output", outputPath).Info("exporting database")
	if err := backup.Export(outputPath); err != nil {
		log.WithError(err).Fatal("export failed")
	}
	if info, err := os.Stat(outputPath); err == nil {
		log.WithField("bytes", info.Size()).Info("export complete")
	}
}

func handleImport(backup *service.BackupService, inputPath string, clearData bool, log *logrus.Logger) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.WithField("input", inputPath).Fatal("input file does not exist")
	}

	if clearData {
		fmt.Print("WARNING: this will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info("import cancelled")
			return
		}
		log.Info("clearing existing data")
		if err := backup.Clear(); err != nil {
			log.WithError(err).Fatal("failed to clear database")
		}
	}

	log.WithField("input", inputPath).Info("importing database")
	if err := backup.Import(inputPath); err != nil {
		log.WithError(err).Fatal("import failed")
	}
	log.Info("import complete")
}

func printUsage() {
	fmt.Println("Reelplay database backup tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println("  -config <file>    Config file path (default: config.toml)")
	fmt.Println()
	fmt.Println("Import options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Delete existing data before import (destructive)")
	fmt.Println("  -config <file>    Config file path (default: config.toml)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DB_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH    SQLite database path (default: ./reelplay.db)")
	fmt.Println("  DB_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  JWT_SECRET Required by config loading even for backups")
}
