package store_test

import (
	"context"
	"slices"
	"testing"

	"github.com/jacentio/sammy/store"
)

func TestSubdomains_RegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	s, client := newTestStore(t, store.DefaultConfig())
	subs := s.Subdomains()

	for _, name := range []string{"foo", "bar", "foo", "baz", "bar"} {
		if err := subs.Register(ctx, name); err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
	}

	names, err := subs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	expected := []string{"bar", "baz", "foo"}
	if !slices.Equal(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
	if n := len(client.Items(store.DefaultConfig().RecordTable)); n != 3 {
		t.Errorf("expected 3 marker items, got %d", n)
	}
}

func TestSubdomains_ListStable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, store.DefaultConfig())
	for _, name := range []string{"zeta", "alpha", "mu"} {
		if err := s.Subdomains().Register(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	first, _ := s.Subdomains().List(ctx)
	second, _ := s.Subdomains().List(ctx)
	if !slices.Equal(first, second) {
		t.Errorf("expected stable order, got %v then %v", first, second)
	}
}

func TestSubdomains_Empty(t *testing.T) {
	s, _ := newTestStore(t, store.DefaultConfig())
	names, err := s.Subdomains().List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("expected no subdomains, got %v", names)
	}
}

func TestSubdomains_Exists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, store.DefaultConfig())
	if err := s.Subdomains().Register(ctx, "foo"); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Subdomains().Exists(ctx, "foo")
	if err != nil || !ok {
		t.Errorf("expected foo to exist, got %v (err %v)", ok, err)
	}
	ok, err = s.Subdomains().Exists(ctx, "bar")
	if err != nil || ok {
		t.Errorf("expected bar to be absent, got %v (err %v)", ok, err)
	}
}

func TestSubdomains_NotMixedWithRecords(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, store.DefaultConfig())
	putPeople(t, s, "foo:a")
	if err := s.Subdomains().Register(ctx, "foo"); err != nil {
		t.Fatal(err)
	}

	names, _ := s.Subdomains().List(ctx)
	if !slices.Equal(names, []string{"foo"}) {
		t.Errorf("expected [foo], got %v", names)
	}
}
