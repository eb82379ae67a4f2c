package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/triage-service/internal/config"
)

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"t1/123-a.txt":        "t1/123-a.txt",
		"../../etc/passwd":    "etc/passwd",
		"/t1//x.png":          "t1/x.png",
		`t1\..\..\secret.txt`: "secret.txt",
	}
	for in, want := range cases {
		got, err := cleanKey(in)
		if err != nil || got != want {
			t.Errorf("cleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := cleanKey("/"); err != ErrInvalidPath {
		t.Errorf("root key err = %v", err)
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "https://files.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := "ticket-1/1700000000000-notes file.txt"

	if err := store.Put(ctx, key, "text/plain", strings.NewReader("hello"), 5); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "ticket-1", "1700000000000-notes file.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("stored %q, %v", data, err)
	}
	if got := store.URL(key); got != "https://files.example.com/ticket-1/1700000000000-notes%20file.txt" {
		t.Errorf("url = %s", got)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second delete = %v", err)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Errorf("got %T", store)
	}
	if _, err := New(config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Error("expected unknown driver error")
	}
}

func TestS3StoreURL(t *testing.T) {
	store, err := NewS3Store(config.StorageConfig{Bucket: "b", AWSRegion: "eu-west-1"})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.URL("t/a.png"); got != "https://b.s3.eu-west-1.amazonaws.com/t/a.png" {
		t.Errorf("url = %s", got)
	}
}

func TestLocalStoreRoutePrefix(t *testing.T) {
	cases := map[string]string{
		"":                           "/files",
		"/attachments/":              "/attachments",
		"https://files.example.com/": "",
		"/":                          "",
	}
	for base, want := range cases {
		store, err := NewLocalStore(t.TempDir(), base)
		if err != nil {
			t.Fatal(err)
		}
		if got := store.RoutePrefix(); got != want {
			t.Errorf("RoutePrefix(%q) = %q, want %q", base, got, want)
		}
	}
}
