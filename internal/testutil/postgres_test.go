package testutil

import (
	"context"
	"testing"
)

// TestSetupTestDB verifies that SetupTestDB creates a fully functional
// PostgreSQL container with the pgvector extension and the migrated schema.
//
// This test validates the test infrastructure itself, ensuring:
//   - Docker container starts successfully
//   - PostgreSQL is accessible
//   - pgvector extension is installed
//   - Database migrations run successfully
//   - All required tables are created
func TestSetupTestDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	dbContainer, cleanup := SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := dbContainer.Pool.Ping(ctx); err != nil {
		t.Fatalf("Pool.Ping() unexpected error: %v", err)
	}

	var hasExtension bool
	err := dbContainer.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&hasExtension)
	if err != nil {
		t.Fatalf("QueryRow(vector extension check) unexpected error: %v", err)
	}
	if !hasExtension {
		t.Error("pgvector extension installed = false, want true")
	}

	tables := []string{"documents", "knowledge_contents", "sessions", "session_messages"}
	for _, table := range tables {
		var exists bool
		err = dbContainer.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table).Scan(&exists)
		if err != nil {
			t.Fatalf("QueryRow(table %q check) unexpected error: %v", table, err)
		}
		if !exists {
			t.Errorf("table %q exists = false, want true", table)
		}
	}
}
