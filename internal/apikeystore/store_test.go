package apikeystore

import "testing"

func TestMemory_InitialState(t *testing.T) {
	m := NewMemory("sk-initial")

	if !m.HasAPIKey() {
		t.Fatal("expected HasAPIKey true when constructed with a non-empty key")
	}
	if got := m.GetAPIKey(); got != "sk-initial" {
		t.Fatalf("GetAPIKey() = %q, want sk-initial", got)
	}
}

func TestMemory_EmptyInitialHasNoKey(t *testing.T) {
	m := NewMemory("")

	if m.HasAPIKey() {
		t.Fatal("expected HasAPIKey false when constructed empty")
	}
}

func TestMemory_SetAPIKeyUpdatesState(t *testing.T) {
	m := NewMemory("")

	if err := m.SetAPIKey("sk-new", true); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if !m.HasAPIKey() {
		t.Fatal("expected HasAPIKey true after SetAPIKey")
	}
	if got := m.GetAPIKey(); got != "sk-new" {
		t.Fatalf("GetAPIKey() = %q, want sk-new", got)
	}
}

func TestMemory_SetAPIKeyClearsWithEmptyString(t *testing.T) {
	m := NewMemory("sk-initial")

	if err := m.SetAPIKey("", false); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if m.HasAPIKey() {
		t.Fatal("expected HasAPIKey false after clearing the key")
	}
}

var _ Store = (*Memory)(nil)
