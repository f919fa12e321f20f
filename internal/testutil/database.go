package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the MySQL test database named by TEST_DB_DSN, or
// 'cafedash_test' on localhost:3306. The test is skipped when it is not
// reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/cafedash_test?clientFoundRows=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the test tables and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"Orders"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the tables the repositories read from.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS Orders (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		customerName VARCHAR(150) NOT NULL DEFAULT '',
		customerNumber VARCHAR(30) NOT NULL DEFAULT '',
		orderDetails TEXT NOT NULL,
		status VARCHAR(20) NULL,
		timestamp BIGINT NOT NULL DEFAULT 0,
		INDEX idx_timestamp (timestamp)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"Orders", createOrdersTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}

// InsertOrder adds one order row for a test.
func InsertOrder(t *testing.T, db *sql.DB, id, customerName, status string, timestamp int64) {
	t.Helper()
	var st any
	if status != "" {
		st = status
	}
	_, err := db.Exec(`
		INSERT INTO Orders (id, customerName, customerNumber, orderDetails, status, timestamp)
		VALUES (?, ?, '+15550100', '1 latte', ?, ?)
	`, id, customerName, st, timestamp)
	if err != nil {
		t.Fatalf("failed to insert order %s: %v", id, err)
	}
}
