package cli

import (
	"testing"

	"github.com/google/uuid"

	"github.com/thornpad/thornpad/pkg/vault"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"note", "note", true},
		{"note", "notes", false},
		{"note*", "notebook", true},
		{"*book", "notebook", true},
		{"n?te", "note", true},
		{"[jn]ote", "note", true},
		{"*", "anything", true},
	}
	for _, tt := range tests {
		got, err := MatchPattern(tt.pattern, tt.value)
		if err != nil {
			t.Errorf("MatchPattern(%q, %q): %v", tt.pattern, tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MatchPattern(%q, %q): got %v, want %v", tt.pattern, tt.value, got, tt.want)
		}
	}
}

func TestMatchPatternInvalid(t *testing.T) {
	if _, err := MatchPattern("[unclosed", "x"); err == nil {
		t.Error("malformed pattern should fail")
	}
}

func TestFilterHeaders(t *testing.T) {
	headers := []vault.RecordHeader{
		{ID: uuid.New(), Type: "note", Tags: []string{"work", "meeting"}},
		{ID: uuid.New(), Type: "journal", Tags: []string{"personal"}},
		{ID: uuid.New(), Type: "note", Tags: nil},
	}

	t.Run("no filters", func(t *testing.T) {
		got, err := FilterHeaders(headers, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("got %d headers, want 3", len(got))
		}
	})

	t.Run("by type", func(t *testing.T) {
		got, err := FilterHeaders(headers, "note", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d headers, want 2", len(got))
		}
	})

	t.Run("by tag glob", func(t *testing.T) {
		got, err := FilterHeaders(headers, "", "work*")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Type != "note" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("type and tag", func(t *testing.T) {
		got, err := FilterHeaders(headers, "journal", "personal")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("got %d headers, want 1", len(got))
		}
	})

	t.Run("no matches", func(t *testing.T) {
		got, err := FilterHeaders(headers, "bookmark", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %d headers, want 0", len(got))
		}
	})
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a,b", []string{"a", "b"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b,", []string{"a", "b"}},
		{"a,b,a", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := SplitTags(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitTags(%q): got %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitTags(%q): got %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestResolveVaultDir(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvVaultDir, "/env/path")
		if got := ResolveVaultDir("/flag/path"); got != "/flag/path" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("env second", func(t *testing.T) {
		t.Setenv(EnvVaultDir, "/env/path")
		if got := ResolveVaultDir(""); got != "/env/path" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("xdg fallback", func(t *testing.T) {
		t.Setenv(EnvVaultDir, "")
		if got := ResolveVaultDir(""); got == "" {
			t.Error("fallback should never be empty")
		}
	})
}
