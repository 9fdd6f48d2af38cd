package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "ledger.db"))
	if err == nil {
		t.Fatal("expected error for path in nonexistent directory")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db returned %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "2",
	} {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestMigration_UpgradeFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`
		CREATE TABLE sweeps (
			id TEXT PRIMARY KEY, name TEXT NOT NULL, definition_hash TEXT NOT NULL,
			seq INTEGER NOT NULL, started_at TEXT NOT NULL, finished_at TEXT NOT NULL DEFAULT '',
			report_path TEXT NOT NULL DEFAULT '', report_hash TEXT NOT NULL DEFAULT '',
			succeeded INTEGER NOT NULL DEFAULT 0, failed INTEGER NOT NULL DEFAULT 0
		);
		INSERT INTO sweeps (id, name, definition_hash, seq, started_at) VALUES ('old', 'legacy', 'h', 1, '2026-01-01T00:00:00Z');
		PRAGMA user_version = 1;
	`)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	sw, err := s.ReadSweep(context.Background(), "old")
	if err != nil {
		t.Fatalf("ReadSweep() failed: %v", err)
	}
	if sw.Name != "legacy" || sw.DefinitionPath != "" {
		t.Errorf("unexpected sweep after migration: %+v", sw)
	}
	if err := s.verifyPragma("user_version", "2"); err != nil {
		t.Error(err)
	}
}

func testSweep(id string, seq int64, started time.Time) SweepRecord {
	return SweepRecord{
		ID:             id,
		Name:           "muxes",
		DefinitionPath: "/work/sweep.cue",
		DefinitionHash: "abc",
		Seq:            seq,
		StartedAt:      started,
	}
}

func testRun(sweepID string, seq int64, index int, runID, status string) RunRecord {
	return RunRecord{
		SweepID:     sweepID,
		Seq:         seq,
		Design:      "mux_bin_base",
		Index:       index,
		RunID:       runID,
		Tag:         runID[len("mux_bin_base_"):],
		Parameters:  []string{"WIDTH=8"},
		Status:      status,
		Fingerprint: "fp",
		Duration:    1500 * time.Millisecond,
	}
}

func TestWriteAndReadSweepRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.WriteSweep(ctx, testSweep("s1", 1, started)); err != nil {
		t.Fatal(err)
	}
	// Written out of seq order on purpose.
	if err := s.WriteRun(ctx, testRun("s1", 3, 1, "mux_bin_base_WIDTH_16", "failed")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRun(ctx, testRun("s1", 2, 0, "mux_bin_base_WIDTH_8", "succeeded")); err != nil {
		t.Fatal(err)
	}
	// Duplicate is ignored.
	if err := s.WriteRun(ctx, testRun("s1", 9, 0, "mux_bin_base_WIDTH_8", "failed")); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ReadSweepRuns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "mux_bin_base_WIDTH_8" || runs[0].Status != "succeeded" || runs[0].Seq != 2 {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if runs[1].RunID != "mux_bin_base_WIDTH_16" || runs[1].Index != 1 {
		t.Errorf("runs[1] = %+v", runs[1])
	}
	if runs[0].Duration != 1500*time.Millisecond || len(runs[0].Parameters) != 1 || runs[0].Parameters[0] != "WIDTH=8" {
		t.Errorf("runs[0] round trip = %+v", runs[0])
	}

	empty, err := s.ReadSweepRuns(ctx, "none")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestWriteRun_RequiresSweep(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteRun(context.Background(), testRun("ghost", 1, 0, "mux_bin_base_WIDTH_8", "succeeded"))
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestWriteRun_RejectsUnknownStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteSweep(ctx, testSweep("s1", 1, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRun(ctx, testRun("s1", 2, 0, "mux_bin_base_WIDTH_8", "pending")); err == nil {
		t.Fatal("expected CHECK constraint violation for pending status")
	}
}

func TestFinishSweep(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.WriteSweep(ctx, testSweep("s1", 1, started)); err != nil {
		t.Fatal(err)
	}

	finished := started.Add(time.Minute)
	err := s.FinishSweep(ctx, "s1", SweepSummary{
		FinishedAt: finished,
		ReportPath: "/work/report.md",
		ReportHash: "rh",
		Succeeded:  3,
		Failed:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	sw, err := s.ReadSweep(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !sw.StartedAt.Equal(started) || !sw.FinishedAt.Equal(finished) {
		t.Errorf("times = %v / %v", sw.StartedAt, sw.FinishedAt)
	}
	if sw.Succeeded != 3 || sw.Failed != 1 || sw.ReportPath != "/work/report.md" {
		t.Errorf("summary = %+v", sw)
	}

	if err := s.FinishSweep(ctx, "missing", SweepSummary{}); err == nil {
		t.Error("expected error finishing unknown sweep")
	}
	if _, err := s.ReadSweep(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadSweep(missing) = %v, want ErrNotFound", err)
	}
}

func TestLatestSweepsAndHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		if err := s.WriteSweep(ctx, testSweep(id, int64(i*10+1), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
		status := "succeeded"
		if id == "s2" {
			status = "failed"
		}
		if err := s.WriteRun(ctx, testRun(id, int64(i*10+2), 0, "mux_bin_base_WIDTH_8", status)); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := s.LatestSweeps(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 2 || latest[0].ID != "s3" || latest[1].ID != "s2" {
		t.Errorf("LatestSweeps = %+v", latest)
	}

	history, err := s.RunHistory(ctx, "mux_bin_base_WIDTH_8")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range history {
		got = append(got, r.SweepID+":"+r.Status)
	}
	want := []string{"s1:succeeded", "s2:failed", "s3:succeeded"}
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	seq, err := s.MaxSeq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 22 {
		t.Errorf("MaxSeq = %d, want 22", seq)
	}
}

func TestMaxSeq_Empty(t *testing.T) {
	s := createTestStore(t)
	seq, err := s.MaxSeq(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if seq != 0 {
		t.Errorf("MaxSeq = %d, want 0", seq)
	}
}
