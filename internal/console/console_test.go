package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"wmtheme/internal/apperr"
	"wmtheme/internal/theme"
)

func TestYesNo(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\nyes\n", true},
		{"y", true},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := NewPrompter(strings.NewReader(tc.input), &out, true).YesNo("Remove theme?")
		if err != nil {
			t.Fatalf("input %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("input %q: got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestYesNoRefusesWithoutTerminal(t *testing.T) {
	_, err := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{}, false).YesNo("Remove?")
	if !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("expected ErrNotInteractive, got %v", err)
	}
}

func TestChooseRefusesWithoutTerminal(t *testing.T) {
	_, err := NewPrompter(strings.NewReader("1\n"), &bytes.Buffer{}, false).Choose("Which theme?", []string{"community/a", "other/a"})
	if !errors.Is(err, ErrNoChoice) {
		t.Fatalf("expected ErrNoChoice, got %v", err)
	}
	if f, ok := apperr.AsFriendly(err); !ok || !strings.Contains(f.Message, "registry/name") || strings.Contains(f.Message, "--noconfirm") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestYesNoEOF(t *testing.T) {
	if _, err := NewPrompter(strings.NewReader(""), &bytes.Buffer{}, true).YesNo("Remove?"); err == nil {
		t.Fatalf("expected error on closed input")
	}
}

func TestChoose(t *testing.T) {
	var out bytes.Buffer
	idx, err := NewPrompter(strings.NewReader("0\n9\n2\n"), &out, true).Choose("Which theme?", []string{"community/a", "other/a"})
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if !strings.Contains(out.String(), "2. other/a") {
		t.Fatalf("options not listed:\n%s", out.String())
	}
	if strings.Count(out.String(), "Invalid choice.") != 2 {
		t.Fatalf("expected two rejections:\n%s", out.String())
	}
}

func TestChooseEmpty(t *testing.T) {
	if _, err := NewPrompter(strings.NewReader("1\n"), &bytes.Buffer{}, true).Choose("?", nil); err == nil {
		t.Fatalf("expected error for empty options")
	}
}

func TestThemeLine(t *testing.T) {
	line := ThemeLine(theme.Record{Name: "soothe", Source: "community", Directory: "/t/soothe", Current: true})
	for _, want := range []string{"Current:", "community", "soothe", DefaultDescription, "-Installed"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	plain := ThemeLine(theme.Record{Name: "x", Description: "mine"})
	if strings.Contains(plain, "Installed") || strings.Contains(plain, "Current") || !strings.Contains(plain, "mine") {
		t.Fatalf("unexpected line %q", plain)
	}
}
