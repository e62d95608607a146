//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/postguard/pkg/database"
	"go.uber.org/zap"
)

var dbPool *pgxpool.Pool

func TestMain(m *testing.M) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping integration tests")
		os.Exit(0)
	}

	if err := database.Migrate(migrationURL(url), zap.NewNop()); err != nil {
		fmt.Printf("failed to migrate test database: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		fmt.Printf("failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	dbPool = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

// migrationURL rewrites a postgres URL to the scheme the migration driver registers
func migrationURL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func truncateTables(t *testing.T) {
	t.Helper()
	_, err := dbPool.Exec(context.Background(),
		`TRUNCATE detections, posts, users, url_cache RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
