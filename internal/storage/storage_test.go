package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalProvider_PutOpenDelete(t *testing.T) {
	root := t.TempDir()
	p, err := NewLocalProvider(root)
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	ctx := context.Background()

	key, err := p.Put(ctx, "imports/3/bank.csv", strings.NewReader("a,b\n"), 4, "text/csv")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "imports/3/bank.csv" {
		t.Errorf("key = %q", key)
	}

	rc, err := p.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "a,b\n" {
		t.Errorf("content = %q", data)
	}

	if err := p.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "imports", "3", "bank.csv")); !os.IsNotExist(err) {
		t.Errorf("object still present: %v", err)
	}
	if err := p.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing object: %v", err)
	}
}

func TestLocalProvider_KeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	p, _ := NewLocalProvider(root)

	key, err := p.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "escape.txt" {
		t.Errorf("key = %q, want escape.txt", key)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Errorf("object not written under root: %v", err)
	}

	if _, err := p.Put(context.Background(), "/", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key error = %v, want ErrInvalidKey", err)
	}
}

func TestNew_UnknownType(t *testing.T) {
	if _, err := New(context.Background(), Config{Type: "ftp"}); err == nil {
		t.Fatal("expected an error for an unknown storage type")
	}
}
