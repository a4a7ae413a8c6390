package datadir

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListWithoutRoot(t *testing.T) {
	for _, l := range []*Lister{nil, {}, New("")} {
		got, err := l.List()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != NotSetMessage {
			t.Errorf("List() = %v, want %q", got, NotSetMessage)
		}
	}
}

func TestListGroupsByPatternDescending(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.etl", "c.etl", "b.etl",
		"trace.nettrace", "old.nettrace",
		"run.btl",
		"notes.txt", "x.netperf",
	} {
		touch(t, dir, name)
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.etl"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := New(dir).List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	want := []string{
		"c.etl", "b.etl", "a.etl",
		"run.btl",
		"x.netperf",
		"trace.nettrace", "old.nettrace",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	got, err := New(t.TempDir()).List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	names, ok := got.([]string)
	if !ok {
		t.Fatalf("List() returned %T, want []string", got)
	}
	if names == nil || len(names) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", names)
	}
}

func TestListCustomPatterns(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "one.etl")
	touch(t, dir, "two.json")

	got, err := New(dir, "*.json").List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if want := []string{"two.json"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}
