// Package catalog persists metadata about installed library bundles in a
// sqlite database, so the CLI's `rules` subcommand can list what's
// available without recompiling every bundle's rules on every invocation.
// This is deliberately separate from rules.Checker's in-memory per-check
// memo tables: one is a durable record of what bundles exist, the other is
// a throwaway cache scoped to a single check.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry describes one library rule recorded in the catalog.
type Entry struct {
	Bundle      string
	Rule        string
	Pattern     string
	Return      string
	InstalledAt time.Time
}

// Catalog wraps a sqlite-backed store of installed bundles and their rules.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS rule_entries (
			bundle       TEXT NOT NULL,
			rule         TEXT NOT NULL,
			pattern      TEXT NOT NULL,
			return_type  TEXT NOT NULL,
			installed_at DATETIME NOT NULL,
			PRIMARY KEY (bundle, rule)
		)`)
	if err != nil {
		return fmt.Errorf("migrating catalog: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// Record upserts every rule in a bundle manifest into the catalog.
func (c *Catalog) Record(bundleName string, rules []RuleMeta, installedAt time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`
		INSERT INTO rule_entries (bundle, rule, pattern, return_type, installed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bundle, rule) DO UPDATE SET
			pattern = excluded.pattern,
			return_type = excluded.return_type,
			installed_at = excluded.installed_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rules {
		if _, err := stmt.Exec(bundleName, r.Name, r.Pattern, r.Return, installedAt); err != nil {
			return fmt.Errorf("recording rule %s/%s: %w", bundleName, r.Name, err)
		}
	}
	return tx.Commit()
}

// RuleMeta is the subset of a library.RuleSpec the catalog persists.
type RuleMeta struct {
	Name    string
	Pattern string
	Return  string
}

// List returns every catalogued rule, ordered by bundle then rule name.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT bundle, rule, pattern, return_type, installed_at
		FROM rule_entries ORDER BY bundle, rule`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Bundle, &e.Rule, &e.Pattern, &e.Return, &e.InstalledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListBundle returns the catalogued rules for a single bundle.
func (c *Catalog) ListBundle(bundle string) ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT bundle, rule, pattern, return_type, installed_at
		FROM rule_entries WHERE bundle = ? ORDER BY rule`, bundle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Bundle, &e.Rule, &e.Pattern, &e.Return, &e.InstalledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
