// Package main provides the operator CLI for deployment and operations tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/easeaico/senior-acido/internal/memory"
	"github.com/easeaico/senior-acido/internal/storage"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	command := os.Args[1]

	switch command {
	case "migrate":
		migrateCmd(os.Args[2:])
	case "schema":
		schemaCmd(os.Args[2:])
	case "validate":
		validateCmd()
	case "forget-casual":
		forgetCasualCmd(os.Args[2:])
	case "version":
		fmt.Printf("senior-acido operator v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`senior-acido operator - Deployment and operations CLI

Usage:
  operator <command> [flags]

Commands:
  migrate         Enable pgvector and create the profiles and chat_histories tables
  schema          Execute SQL migration files from migrations/ directory
  validate        Validate environment configuration
  forget-casual   Delete casual chat history for a user
  version         Show version information
  help            Show this help message

Examples:
  operator migrate                     # Run all migrations
  operator migrate --dry-run           # Show what would be migrated
  operator schema --file 001_init.sql  # Execute a specific migration file
  operator validate                    # Check env vars and the database
  operator forget-casual --user mentorado`)
}

// migrateCmd handles the migrate command.
func migrateCmd(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would be migrated without executing")
	_ = fs.Parse(args)

	if *dryRun {
		fmt.Println("Dry run mode - no changes will be made")
		fmt.Println("  - Would enable the vector extension")
		fmt.Println("  - Would migrate application tables (profiles, chat_histories)")
		fmt.Println("  - Would create the ivfflat index on chat_histories.embedding")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := connect(ctx)
	defer store.Close()

	fmt.Println("Migrating application tables...")
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate app tables: %v", err)
	}
	fmt.Println("  ✓ Application tables migrated")
	fmt.Println("\nMigration completed successfully!")
}

// schemaCmd handles the schema command for executing SQL files.
func schemaCmd(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	file := fs.String("file", "", "Specific migration file to execute")
	migrationsDir := fs.String("dir", "migrations", "Directory containing migration files")
	dryRun := fs.Bool("dry-run", false, "Show what would be executed without running")
	_ = fs.Parse(args)

	files, err := findMigrationFiles(*migrationsDir, *file)
	if err != nil {
		log.Fatalf("failed to find migration files: %v", err)
	}
	if len(files) == 0 {
		fmt.Println("No migration files found")
		return
	}

	fmt.Printf("Found %d migration file(s):\n", len(files))
	for _, f := range files {
		fmt.Printf("  - %s\n", filepath.Base(f))
	}
	if *dryRun {
		fmt.Println("\nDry run mode - no SQL will be executed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	store := connect(ctx)
	defer store.Close()

	fmt.Println("\nExecuting migrations...")
	for _, f := range files {
		fmt.Printf("  Running %s... ", filepath.Base(f))
		if err := executeSQLFile(ctx, store, f); err != nil {
			fmt.Println("✗")
			log.Fatalf("failed to execute %s: %v", f, err)
		}
		fmt.Println("✓")
	}
	fmt.Println("\nSchema migration completed successfully!")
}

type envCheck struct {
	name     string
	envVar   string
	required bool
}

var envChecks = []envCheck{
	{"Llama API Key", "LLAMA_API_KEY", true},
	{"Llama Base URL", "LLAMA_BASE_URL", false},
	{"Database URL", "DATABASE_URL", false},
	{"Google API Key", "GOOGLE_API_KEY", false},
	{"Capable Model", "CAPABLE_MODEL", false},
	{"Economical Model", "ECONOMICAL_MODEL", false},
	{"Fallback Model", "FALLBACK_MODEL", false},
	{"Persona File", "PERSONA_FILE", false},
	{"Routing File", "ROUTING_FILE", false},
	{"HTTP Address", "HTTP_ADDR", false},
}

// validateCmd validates the configuration.
func validateCmd() {
	fmt.Println("Validating configuration...")

	hasErrors := false
	for _, c := range envChecks {
		value := os.Getenv(c.envVar)
		if value == "" {
			if c.required {
				fmt.Printf("  ✗ %s (%s): NOT SET (required)\n", c.name, c.envVar)
				hasErrors = true
			} else {
				fmt.Printf("  - %s (%s): not set (optional, will use default)\n", c.name, c.envVar)
			}
			continue
		}
		fmt.Printf("  ✓ %s (%s): %s\n", c.name, c.envVar, displayValue(c.envVar, value))
	}

	if hasErrors {
		fmt.Println("\nConfiguration validation failed!")
		os.Exit(1)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("\nNo DATABASE_URL: the service will keep memory in process only.")
		fmt.Println("\nConfiguration validation completed!")
		return
	}

	fmt.Println("\nTesting database connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewStore(ctx, dbURL)
	if err != nil {
		fmt.Printf("  ✗ %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	fmt.Println("  ✓ Database connection successful")

	switch ok, err := store.HasVectorExtension(ctx); {
	case err != nil:
		fmt.Printf("  ! %v\n", err)
	case ok:
		fmt.Println("  ✓ pgvector extension installed")
	default:
		fmt.Println("  ! pgvector extension not installed (run: operator migrate)")
	}

	fmt.Println("\nConfiguration validation completed!")
}

// forgetCasualCmd deletes casual history rows, keeping important ones.
func forgetCasualCmd(args []string) {
	fs := flag.NewFlagSet("forget-casual", flag.ExitOnError)
	defaultUser := os.Getenv("USER_ID")
	if defaultUser == "" {
		defaultUser = "mentorado"
	}
	user := fs.String("user", defaultUser, "User whose casual history is deleted")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := connect(ctx)
	defer store.Close()

	svc := memory.NewService(nil, store.Profiles, store.Histories, memory.Options{})
	n, err := svc.ForgetCasual(ctx, *user)
	if err != nil {
		log.Fatalf("failed to forget casual history: %v", err)
	}
	fmt.Printf("Deleted %d casual history row(s) for %s\n", n, *user)
}

// connect opens the database named by DATABASE_URL or exits.
func connect(ctx context.Context) *storage.Store {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	store, err := storage.NewStore(ctx, dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return store
}

// findMigrationFiles returns dir/specificFile, or every .sql file in dir in name order.
func findMigrationFiles(dir, specificFile string) ([]string, error) {
	if specificFile != "" {
		path := filepath.Join(dir, specificFile)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("migration file not found: %s", path)
		}
		return []string{path}, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func executeSQLFile(ctx context.Context, store *storage.Store, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return store.Exec(ctx, string(content))
}
