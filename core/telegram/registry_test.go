package telegram

import (
	"errors"
	"testing"
)

func TestRegistryRegisterGetUnregister(t *testing.T) {
	reg := NewRegistry()
	a := &Bot{Name: "a", Token: "1:a"}
	if err := reg.Register(a); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got, ok := reg.Get("1:a"); !ok || got != a {
		t.Fatalf("get = %v, %v", got, ok)
	}

	dup := &Bot{Name: "a2", Token: "1:a"}
	if err := reg.Register(dup); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrAlreadyRegistered", err)
	}

	reg.Unregister(dup)
	if _, ok := reg.Get("1:a"); !ok {
		t.Fatal("unregistering a different bot with the same token must not remove the original")
	}
	reg.Unregister(a)
	reg.Unregister(a)
	if reg.Len() != 0 {
		t.Fatalf("len = %d", reg.Len())
	}
}

func TestRegistryBotsSnapshotSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(&Bot{Name: name, Token: name + ":t"}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	bots := reg.Bots()
	if len(bots) != 3 || bots[0].Name != "alpha" || bots[2].Name != "zeta" {
		t.Fatalf("unexpected order: %v %v %v", bots[0].Name, bots[1].Name, bots[2].Name)
	}
	bots[0] = nil
	if reg.Bots()[0] == nil {
		t.Fatal("snapshot must not alias registry state")
	}
}

func TestRegisterRejectsEmptyToken(t *testing.T) {
	if err := NewRegistry().Register(&Bot{Name: "x"}); err == nil {
		t.Fatal("expected error")
	}
}
