package database

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	got := statements(schema)
	if len(got) != 2 {
		t.Fatalf("statements(schema) = %d statements, want 2", len(got))
	}
	for _, s := range got {
		if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("statement does not start with CREATE TABLE: %.40q", s)
		}
		if strings.HasSuffix(s, ";") {
			t.Errorf("statement keeps trailing semicolon: %.40q", s)
		}
	}
}

func TestStatements_SkipsComments(t *testing.T) {
	got := statements("-- header\nSELECT 1;\n\n-- trailing\nSELECT 2")
	if len(got) != 2 || got[0] != "SELECT 1" || got[1] != "SELECT 2" {
		t.Errorf("statements() = %q", got)
	}
}
