package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultChallengeCatalog(t *testing.T) {
	catalog := DefaultChallengeCatalog()
	if len(catalog) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(catalog))
	}

	var daily, weekly int
	for _, c := range catalog {
		if err := c.Validate(); err != nil {
			t.Fatalf("entry %s: %v", c.ID, err)
		}
		if !c.IsActive {
			t.Fatalf("entry %s should be active", c.ID)
		}
		switch c.Type {
		case Daily:
			daily++
		case Weekly:
			weekly++
		}
	}
	if daily != 2 || weekly != 2 {
		t.Fatalf("expected 2 daily and 2 weekly, got %d/%d", daily, weekly)
	}
}

func TestLoadChallengeCatalog(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "catalog.json")
	body := `[{"id":"c1","title":"Log a meal","description":"","reward_xp":5,"type":"daily","is_active":true}]`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	catalog, err := LoadChallengeCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(catalog) != 1 || catalog[0].ID != "c1" || catalog[0].Type != Daily {
		t.Fatalf("unexpected catalog %+v", catalog)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadChallengeCatalog(empty); err == nil {
		t.Fatal("empty catalog should be rejected")
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`[{"id":"c2","title":"","reward_xp":5,"type":"daily"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadChallengeCatalog(invalid); err == nil {
		t.Fatal("entry without title should be rejected")
	}

	if _, err := LoadChallengeCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("missing file should be rejected")
	}
}
