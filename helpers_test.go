package treedb

import (
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func setup(t testing.TB) *Store {
	t.Helper()
	file := filepath.Join(t.TempDir(), "tree.db")
	t.Logf("DB: %s", file)
	s := must(Open(file, Options{
		IsTesting: true,
		Verbose:   true,
		Logger:    testLogger(t),
	}))
	t.Cleanup(func() { ensure(s.Close()) })
	return s
}

func setupMem(t testing.TB, opt Options) *Store {
	t.Helper()
	opt.Verbose = true
	opt.Logger = testLogger(t)
	s := OpenMem(opt)
	t.Cleanup(func() { ensure(s.Close()) })
	return s
}

// eachStore runs f against a Bolt store and an in-memory store.
func eachStore(t *testing.T, f func(t *testing.T, s *Store)) {
	t.Run("bolt", func(t *testing.T) { f(t, setup(t)) })
	t.Run("mem", func(t *testing.T) { f(t, setupMem(t, Options{})) })
}

func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct {
	t testing.TB
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %#v, wanted %#v", a, e)
	}
}

func batchOf(t testing.TB, m map[string]any) *Batch {
	t.Helper()
	b, err := BatchFromMap(m)
	if err != nil {
		t.Fatalf("BatchFromMap: %v", err)
	}
	return b
}
