package sqlite

import "testing"

func TestSettingRepository_GetMissing(t *testing.T) {
	store := newTestStore(t)
	repo := NewSettingRepository(store)

	value, ok, err := repo.Get("emergency_fund_goal")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok {
		t.Errorf("Expected missing key, got %q", value)
	}
}

func TestSettingRepository_SetAndOverwrite(t *testing.T) {
	store := newTestStore(t)
	repo := NewSettingRepository(store)

	if err := repo.Set("emergency_fund_goal", "50000"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.Set("emergency_fund_goal", "75000"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	value, ok, err := repo.Get("emergency_fund_goal")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Fatal("Expected key to exist")
	}
	if value != "75000" {
		t.Errorf("Expected 75000, got %q", value)
	}
}
