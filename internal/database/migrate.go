package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

// Migrate applies schema.sql.  Every statement is idempotent, so it runs
// on each start.  Statements are sent one at a time because the DSN does
// not enable multiStatements.
func Migrate(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	for i, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	log.Info("database schema is up to date")
	return nil
}

// statements splits a script on ";" line endings and drops comment-only
// lines.
func statements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSuffix(strings.TrimSpace(cur.String()), ";"))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
