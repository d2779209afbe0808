package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/model"
)

func sample(base time.Time) []Record {
	return []Record{
		{ID: "a", Timestamp: base, Kind: KindStatus, Outcome: "success"},
		{ID: "b", Timestamp: base.Add(time.Minute), Kind: KindOptimize, Outcome: "warning",
			KPIs: &model.KPIs{TotalCost: 10, PeakKW: 22, OnTimePct: 100}, Warning: "milp unavailable"},
		{ID: "c", Timestamp: base.Add(2 * time.Minute), Kind: KindOptimize, Outcome: "failure", Error: "optimize: boom"},
		{ID: "d", Timestamp: base.Add(3 * time.Minute), Kind: KindBlackout, Outcome: "success",
			Request: map[string]any{"depot": "D2", "start": 18.0, "end": 22.0}},
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, r := range sample(base) {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, 22.0, all[1].KPIs.PeakKW)
	assert.Equal(t, "D2", all[3].Request["depot"])

	opt, err := s.Query(ctx, Query{Kind: KindOptimize})
	require.NoError(t, err)
	require.Len(t, opt, 2)

	failed, err := s.Query(ctx, Query{Outcome: "failure"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)

	window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(150 * time.Second)})
	require.NoError(t, err)
	require.Len(t, window, 2)

	last, err := s.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "d", last[0].ID)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "nested", "journal.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")
	s, err := NewJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	big := make([]string, 2000)
	for i := range big {
		big[i] = "padding padding padding padding"
	}
	rec := Record{ID: "x", Timestamp: time.Now(), Kind: KindCompare, Outcome: "success",
		Request: map[string]any{"pad": big}}
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Append(context.Background(), rec))
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "journal-*.jsonl"))
	assert.NotEmpty(t, backups, "expected rotated files")

	out, err := s.Query(context.Background(), Query{Kind: KindCompare})
	require.NoError(t, err)
	assert.Len(t, out, 30, "rotated files are read back")
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestOpen(t *testing.T) {
	cfg := Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "j.db")}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	s, err := Open(cfg)
	require.NoError(t, err)
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	assert.Error(t, Config{Backend: "kafka", Path: "x"}.Validate())
	_, err = Open(Config{Backend: "kafka"})
	assert.Error(t, err)

	var def Config
	def.SetDefaults()
	assert.Equal(t, BackendJSONL, def.Backend)
	assert.Equal(t, "chargeboard-journal.jsonl", def.Path)
}
