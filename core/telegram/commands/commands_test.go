package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/uthef/QrBot/core/telegram"
)

func noop(context.Context, *telegram.Request) error { return nil }

func TestDefineAndLookup(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Define("/Start", "start_desc", noop); err != nil {
		t.Fatalf("define: %v", err)
	}
	for _, name := range []string{"start", "START", "/start"} {
		cmd, ok := tbl.Lookup(name)
		if !ok || cmd.Name != "start" || cmd.Description != "start_desc" {
			t.Fatalf("lookup %q = %+v, %v", name, cmd, ok)
		}
	}
	if _, ok := tbl.Lookup("scan"); ok {
		t.Fatal("unexpected hit for undefined command")
	}
}

func TestDefineRejectsDuplicate(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Define("scan", "d", noop); err != nil {
		t.Fatalf("define: %v", err)
	}
	err := tbl.Define("SCAN", "d", noop)
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("err = %v, want ErrDuplicateCommand", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("len = %d", tbl.Len())
	}
}

func TestDefineRejectsInvalid(t *testing.T) {
	tbl := NewTable()
	cases := []struct {
		name    string
		handler telegram.HandlerFunc
	}{
		{"", noop},
		{"/", noop},
		{"gen qr", noop},
		{"gen-qr", noop},
		{"this_name_is_definitely_longer_than_32", noop},
		{"ok", nil},
	}
	for _, tc := range cases {
		if err := tbl.Define(tc.name, "d", tc.handler); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("define(%q) err = %v, want ErrInvalidCommand", tc.name, err)
		}
	}
}

func TestListKeepsOrderAndLocalizes(t *testing.T) {
	tbl := NewTable()
	for _, n := range []string{"start", "gen_qr", "scan"} {
		if err := tbl.Define(n, n+"_desc", noop); err != nil {
			t.Fatalf("define: %v", err)
		}
	}
	var names, descs []string
	for name, desc := range tbl.List(func(k string) string { return "<" + k + ">" }) {
		names = append(names, name)
		descs = append(descs, desc)
	}
	if len(names) != 3 || names[0] != "start" || names[1] != "gen_qr" || names[2] != "scan" {
		t.Fatalf("names = %v", names)
	}
	if descs[1] != "<gen_qr_desc>" {
		t.Fatalf("descs = %v", descs)
	}

	count := 0
	for range tbl.List(nil) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("early break yielded %d", count)
	}
}
