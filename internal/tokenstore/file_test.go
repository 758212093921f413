package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()

	record := &TokenRecord{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil record after Save")
	}
	if *loaded != *record {
		t.Errorf("loaded record %+v, want %+v", loaded, record)
	}
}

func TestFileStoreFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Save(context.Background(), &TokenRecord{AccessToken: "at"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 0600", perm)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	record, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record != nil {
		t.Errorf("Load of missing file = %+v, want nil", record)
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not JSON", content: "not json at all"},
		{name: "truncated JSON", content: `{"access_token": "at`},
		{name: "empty object", content: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token.json")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("writing fixture failed: %v", err)
			}

			store, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("NewFileStore failed: %v", err)
			}

			record, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if record != nil {
				t.Errorf("Load of corrupt file = %+v, want nil", record)
			}
		})
	}
}

func TestFileStoreSaveNilRecord(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestTokenRecordValid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		record *TokenRecord
		want   bool
	}{
		{
			name:   "nil record",
			record: nil,
			want:   false,
		},
		{
			name:   "empty access token",
			record: &TokenRecord{RefreshToken: "rt", ExpiresAt: now.Add(time.Hour).Unix()},
			want:   false,
		},
		{
			name:   "valid with ample margin",
			record: &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(time.Hour).Unix()},
			want:   true,
		},
		{
			name:   "expired",
			record: &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(-time.Minute).Unix()},
			want:   false,
		},
		{
			name:   "inside validity skew window",
			record: &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(ValiditySkew / 2).Unix()},
			want:   false,
		},
		{
			name:   "just outside validity skew window",
			record: &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(ValiditySkew + time.Minute).Unix()},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Valid(now); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
