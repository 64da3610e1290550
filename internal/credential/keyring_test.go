package credential

import (
	"testing"

	"github.com/99designs/keyring"

	"github.com/teamkonekt/konekt/internal/model"
)

func TestSaveLoadClear(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	sess, err := s.Load()
	if err != nil {
		t.Fatalf("Load on empty keyring: %v", err)
	}
	if sess.Active() {
		t.Fatalf("expected no session, got %+v", sess)
	}

	want := model.Session{Token: "abc123", Role: model.RoleEmployee, OrganizationName: "Acme"}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, key := range []string{KeyToken, KeyUserType, KeyCompany} {
		if v, err := s.Get(key); err != nil || v != "" {
			t.Fatalf("expected %s cleared, got %q (%v)", key, v, err)
		}
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear should be a no-op, got %v", err)
	}
}

func TestLoadUnknownRole(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring([]keyring.Item{
		{Key: KeyToken, Data: []byte("tok")},
		{Key: KeyUserType, Data: []byte("admin")},
	}))

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Active() || got.Role != "" || got.OrganizationName != "" {
		t.Fatalf("expected token with empty role and company, got %+v", got)
	}
}
