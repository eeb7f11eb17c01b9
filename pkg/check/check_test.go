package check

import (
	"context"
	"testing"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		c    Check
		kind Kind
	}{
		{Command("true"), KindCommand},
		{Predicate(func(context.Context) (bool, error) { return true, nil }), KindPredicate},
		{File("/tmp/x"), KindFile},
		{State("before"), KindState},
		{StateDiff("before", "after"), KindStateDiff},
		{GitHub("octocat/hello-world", "stars"), KindGitHub},
	}
	for _, tt := range tests {
		if tt.c.Kind() != tt.kind {
			t.Errorf("Kind() = %s, want %s", tt.c.Kind(), tt.kind)
		}
	}
}

func TestCommandInCopiesEnv(t *testing.T) {
	env := map[string]string{"KEY": "v1"}
	c := CommandIn("echo hi", "/tmp", env)
	env["KEY"] = "v2"
	if c.Env["KEY"] != "v1" {
		t.Errorf("Env[KEY] = %q, want %q (constructor must copy)", c.Env["KEY"], "v1")
	}
}

func TestFileShouldExist(t *testing.T) {
	if !File("/tmp/x").ShouldExist() {
		t.Error("default ShouldExist() = false, want true")
	}
	if FileAbsent("/tmp/x").ShouldExist() {
		t.Error("FileAbsent ShouldExist() = true, want false")
	}
}

func TestStateEquals(t *testing.T) {
	plain := State("k")
	if plain.HasExpected {
		t.Error("State() should carry no expectation")
	}
	eq := StateEquals("k", nil)
	if !eq.HasExpected {
		t.Error("StateEquals(k, nil) should carry an expectation")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10MB", 10 * 1024 * 1024, false},
		{"1.5KB", 1536, false},
		{"2GB", 2 * 1024 * 1024 * 1024, false},
		{"512", 512, false},
		{"100B", 100, false},
		{" 1 kb ", 1024, false},
		{"abc", 0, true},
		{"MB", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KB"},
		{3 * 1024 * 1024, "3.0MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSizeBounds(t *testing.T) {
	f := File("/tmp/x")
	f.MinSize = "1KB"
	f.MaxSize = "1MB"
	minBytes, maxBytes, err := f.SizeBounds()
	if err != nil {
		t.Fatalf("SizeBounds: %v", err)
	}
	if minBytes != 1024 || maxBytes != 1024*1024 {
		t.Errorf("SizeBounds = (%d, %d), want (1024, 1048576)", minBytes, maxBytes)
	}

	f.MinSize = "bogus"
	if _, _, err := f.SizeBounds(); err == nil {
		t.Error("SizeBounds with invalid MinSize: expected error")
	}
}
