package store

import (
	"bytes"
	"path/filepath"
	"testing"
)

func testRoundtrip(t *testing.T, kv KV) {
	t.Helper()

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set("encounters:active:lic1:cleanup_beach", `{"status":"in-progress"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("encounters:active:lic1:delivery_quickdrop", `{"status":"complete"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("encounters:cooldown:lic2:cleanup_beach:v7", "1700000000"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := kv.Get("encounters:active:lic1:cleanup_beach")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != `{"status":"in-progress"}` {
		t.Fatalf("unexpected value %q", v)
	}

	// Overwrite keeps the newest value.
	if err := kv.Set("encounters:active:lic1:cleanup_beach", `{"status":"complete"}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _, _ = kv.Get("encounters:active:lic1:cleanup_beach")
	if v != `{"status":"complete"}` {
		t.Fatalf("expected overwritten value, got %q", v)
	}

	pairs, err := kv.List("encounters:active:lic1:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Key > pairs[1].Key {
		t.Fatalf("expected sorted keys, got %q before %q", pairs[0].Key, pairs[1].Key)
	}

	if err := kv.Delete("encounters:active:lic1:cleanup_beach"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get("encounters:active:lic1:cleanup_beach"); ok {
		t.Fatalf("expected key gone after delete")
	}
	if err := kv.Delete("encounters:active:lic1:cleanup_beach"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestMemoryRoundtrip(t *testing.T) {
	kv := NewMemory()
	defer kv.Close()
	testRoundtrip(t, kv)
}

func TestSQLiteRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv", "encounters.db")
	kv, err := OpenSQL(DialectSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()
	testRoundtrip(t, kv)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encounters.db")
	kv, err := OpenSQL(DialectSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := kv.Set("encounters:discovered:lic1", `["cleanup_beach"]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	kv, err = OpenSQL(DialectSQLite, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer kv.Close()
	v, ok, err := kv.Get("encounters:discovered:lic1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if v != `["cleanup_beach"]` {
		t.Fatalf("unexpected value after reopen: %q", v)
	}
}

func TestListEscapesLikeWildcards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encounters.db")
	kv, err := OpenSQL(DialectSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()

	if err := kv.Set("a_b:one", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("axb:two", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	pairs, err := kv.List("a_b:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "a_b:one" {
		t.Fatalf("expected underscore to match literally, got %v", pairs)
	}
}

func TestBackupRoundtrip(t *testing.T) {
	src := NewMemory()
	if err := src.Set("encounters:active:lic1:cleanup_beach", `{"status":"in-progress"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := src.Set("encounters:cooldown:lic1:cleanup_beach:v7", "1700000000"); err != nil {
		t.Fatalf("set: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(src, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := NewMemory()
	if err := Import(dst, &buf); err != nil {
		t.Fatalf("import: %v", err)
	}

	want, _ := src.List("")
	got, _ := dst.List("")
	if len(got) != len(want) {
		t.Fatalf("expected %d pairs after import, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d mismatch: %v vs %v", i, got[i], want[i])
		}
	}
}
