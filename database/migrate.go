package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFiles embed.FS

const migrationTable = "schema_migrations"

// InitDatabase applies the embedded migrations for the connection's driver
// and aligns the code sequences with any codes already stored.
func InitDatabase(db *sqlx.DB) error {
	dir, err := fs.Sub(migrationFiles, path.Join("migrations", dialectDir(db.DriverName())))
	if err != nil {
		return fmt.Errorf("no migrations for driver %s: %w", db.DriverName(), err)
	}
	applied, err := ApplyMigrations(db, dir)
	if err != nil {
		return err
	}
	if applied > 0 {
		zap.S().Infof("Applied %d migration(s).", applied)
	}

	return WithTx(db, func(tx *sqlx.Tx) error {
		for _, seq := range []struct{ name, table string }{
			{SeqEmployee, "employees"},
			{SeqCustomer, "customers"},
			{SeqCoupon, "coupons"},
		} {
			if err := InitializeSequenceFromMaxCode(tx, seq.name, seq.table); err != nil {
				zap.S().Warnf("Failed to initialize %s sequence: %v", seq.name, err)
			}
		}
		return nil
	})
}

func dialectDir(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// ApplyMigrations runs every .sql file in migrationFS in name order, at most
// once each, recording applied files in schema_migrations.
func ApplyMigrations(db *sqlx.DB, migrationFS fs.FS) (int, error) {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`, migrationTable)
	if _, err := db.Exec(createSQL); err != nil {
		return 0, fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		var n int
		q := db.Rebind("SELECT COUNT(*) FROM " + migrationTable + " WHERE name = ?")
		if err := db.Get(&n, q, file); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", file, err)
		}
		if n > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		upSQL := extractUp(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		err = WithTx(db, func(tx *sqlx.Tx) error {
			if _, err := tx.Exec(upSQL); err != nil {
				return fmt.Errorf("exec migration %s: %w", file, err)
			}
			q := tx.Rebind("INSERT INTO " + migrationTable + " (name, applied_at) VALUES (?, ?)")
			if _, err := tx.Exec(q, file, nowStamp()); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// extractUp returns the SQL between "-- +migrate Up" and "-- +migrate Down",
// or the whole file when there are no markers.
func extractUp(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(body, "-- +migrate Down"); downIdx != -1 {
		body = body[:downIdx]
	}
	return body
}
