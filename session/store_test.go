package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Absent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cookies.json"))

	tokens, found, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
	if tokens != nil {
		t.Fatalf("expected nil tokens, got %v", tokens)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	store := NewStore(path)

	saved := []Token{
		{Name: "zguid", Value: "abc", Domain: ".zillow.com", Path: "/", Expires: 1893456000, Secure: true, SameSite: "Lax"},
		{Name: "JSESSIONID", Value: "xyz", Domain: "www.zillow.com", Path: "/", Expires: -1, HTTPOnly: true},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, found, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !found {
		t.Fatalf("expected found=true")
	}
	if len(loaded) != len(saved) {
		t.Fatalf("expected %d tokens, got %d", len(saved), len(loaded))
	}
	for i := range saved {
		if loaded[i] != saved[i] {
			t.Fatalf("token %d: expected %+v, got %+v", i, saved[i], loaded[i])
		}
	}
}

func TestLoad_ExpiredTokensStillLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cookies.json"))
	if err := store.Save([]Token{{Name: "old", Value: "1", Expires: 1}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tokens, found, err := store.Load()
	if err != nil || !found || len(tokens) != 1 {
		t.Fatalf("expected the expired token back, got %v %v %v", tokens, found, err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewStore(path).Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}
