package store

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestKV(t *testing.T) *SQLiteKV {
	t.Helper()
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "tutor.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestGetMissingKey(t *testing.T) {
	kv := openTestKV(t)
	_, ok, err := kv.Get("absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("missing key reported as present")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	kv := openTestKV(t)
	want := []byte(`{"id":"s1","messages":[]}`)
	if err := kv.Put("session:s1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := kv.Get("session:s1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}
}

func TestPutReplacesValue(t *testing.T) {
	kv := openTestKV(t)
	kv.Put("k", []byte("old"))
	if err := kv.Put("k", []byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _, _ := kv.Get("k")
	if string(got) != "new" {
		t.Errorf("Get = %q after overwrite", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	kv := openTestKV(t)
	kv.Put("k", []byte("v"))
	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get("k"); ok {
		t.Error("key survived delete")
	}
	if err := kv.Delete("k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestReopenSeesPersistedData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tutor.db")

	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	kv.Put("current-session-id", []byte("abc"))
	kv.Close()

	kv2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	got, ok, err := kv2.Get("current-session-id")
	if err != nil || !ok || string(got) != "abc" {
		t.Errorf("after reopen: got=%q ok=%v err=%v", got, ok, err)
	}
}
