package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"motion/internal/cache"
	"motion/internal/config"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/repository/postgres"
	postgresDocsys "motion/internal/repository/postgres/docsystem"
	serviceAuth "motion/internal/service/auth"
	serviceDocsys "motion/internal/service/docsystem"
	"motion/internal/seed"
	"motion/internal/storage"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Delete the seed user's documents (keep schema)")
	userID := flag.String("user", os.Getenv("SEED_USER_ID"), "Identity subject that owns the seeded documents")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production")
	}
	if !*schemaOnly && *userID == "" {
		log.Fatalf("--user (or SEED_USER_ID) is required unless --schema-only is set")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		n, err := clearUserData(ctx, pool, tables, *userID)
		if err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Printf("Deleted %d documents for %s", n, *userID)
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	jobQueue := postgresDocsys.NewCascadeJobQueue(repoConfig)

	// Seeding never archives, so the worker is only needed as a notifier
	worker := serviceDocsys.NewCascadeWorker(docRepo, jobQueue, cache.NewNoop(), docsysSvc.CascadeOptions{}, logger)

	docService := serviceDocsys.NewDocumentService(
		docRepo,
		jobQueue,
		postgres.NewTransactionManager(pool, logger),
		serviceAuth.NewOwnerBasedAuthorizer(),
		serviceDocsys.NewParentValidator(docRepo),
		cache.NewNoop(),
		storage.NewNoop(logger),
		worker,
		logger,
	)

	nodes, err := seed.WelcomeTree()
	if err != nil {
		log.Fatalf("Failed to load seed tree: %v", err)
	}

	created, err := seed.NewSeeder(docService, logger).Seed(ctx, *userID, nodes)
	if err != nil {
		log.Fatalf("Seeding failed after %d documents: %v", created, err)
	}

	log.Printf("Seeding complete: %d documents for %s", created, *userID)
}

// clearUserData removes every document and pending cascade job owned by userID
func clearUserData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID string) (int64, error) {
	if _, err := pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", tables.CascadeJobs), userID); err != nil {
		return 0, fmt.Errorf("clear cascade jobs: %w", err)
	}

	tag, err := pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", tables.Documents), userID)
	if err != nil {
		return 0, fmt.Errorf("clear documents: %w", err)
	}
	return tag.RowsAffected(), nil
}
