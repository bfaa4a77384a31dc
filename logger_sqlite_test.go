package hivsim

import (
	"path/filepath"
	"testing"
)

func TestSQLiteLoggerTableNameSuffixesInstance(t *testing.T) {
	l := &SQLiteLogger{instanceID: 5}
	if got := l.tableName(); got != "Report005" {
		t.Errorf("expected table name Report005, got %q", got)
	}
}

func TestSQLiteLoggerSetBasePath(t *testing.T) {
	l := &SQLiteLogger{}
	l.SetBasePath(filepath.Join(t.TempDir(), "run"), 1)
	if l.instanceID != 1 {
		t.Errorf("expected instanceID=1, got %d", l.instanceID)
	}
	if filepath.Ext(l.path) != ".db" {
		t.Errorf("expected a .db path, got %q", l.path)
	}
}

func TestSQLiteLoggerInitWriteClose(t *testing.T) {
	dir := t.TempDir()
	l := NewSQLiteLogger(filepath.Join(dir, "run"), 0)

	if err := l.Init(); err != nil {
		t.Fatalf("unexpected error initializing sqlite logger: %v", err)
	}

	row := ReportRow{Time: 1, NumAgents: 5, MeanAge: 29.0}
	if err := l.WriteReportRow(row); err != nil {
		t.Fatalf("unexpected error writing report row: %v", err)
	}

	var count int
	if err := l.db.QueryRow("select count(*) from " + l.tableName()).Scan(&count); err != nil {
		t.Fatalf("unexpected error querying row count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row written, got %d", count)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error closing logger: %v", err)
	}
}

func TestSQLiteLoggerCloseNilDBIsNoOp(t *testing.T) {
	l := &SQLiteLogger{}
	if err := l.Close(); err != nil {
		t.Errorf("expected Close on an unopened logger to be a no-op, got %v", err)
	}
}
