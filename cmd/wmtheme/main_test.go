package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"wmtheme/internal/app"
	"wmtheme/internal/apperr"
	"wmtheme/internal/registry"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func boolPtr(v bool) *bool { return &v }

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var err error
	out := captureStdout(t, func() {
		cmd, _ := newRootCmd()
		cmd.SetArgs(args)
		err = cmd.Execute()
	})
	return out, err
}

func TestNewRootCmdIncludesCoreCommands(t *testing.T) {
	cmd, _ := newRootCmd()
	got := map[string]bool{}
	for _, c := range cmd.Commands() {
		got[c.Name()] = true
	}
	for _, want := range []string{"install", "uninstall", "list", "new", "upgrade", "update", "apply", "status", "search", "support", "current", "registry", "version"} {
		if !got[want] {
			t.Fatalf("expected command %q", want)
		}
	}
}

func TestSubcommandFlags(t *testing.T) {
	noSvc := func() (*app.Service, error) {
		t.Fatalf("newSvc should not be called for flag check")
		return nil, nil
	}
	cases := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{newInstallCmd(noSvc, boolPtr(false)), []string{"override-checks"}},
		{newUninstallCmd(noSvc, boolPtr(false)), []string{"noconfirm"}},
		{newUpgradeCmd(noSvc, boolPtr(false)), []string{"skip-db-update"}},
		{newUpdateCmd(noSvc, boolPtr(false)), []string{"all"}},
		{newApplyCmd(noSvc, boolPtr(false)), []string{"no-reset", "override-checks"}},
		{newSupportCmd(noSvc, boolPtr(false)), []string{"open"}},
	}
	for _, tc := range cases {
		for _, flag := range tc.flags {
			if tc.cmd.Flags().Lookup(flag) == nil {
				t.Fatalf("%s: expected --%s flag", tc.cmd.Name(), flag)
			}
		}
	}
}

func TestUsageErrorsAreFriendly(t *testing.T) {
	called := false
	cmd := newInstallCmd(func() (*app.Service, error) {
		called = true
		return nil, errors.New("should not be called")
	}, boolPtr(false))
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.Execute()
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "CLI_USAGE" {
		t.Fatalf("expected CLI_USAGE, got %v", err)
	}
	if called {
		t.Fatalf("newSvc should not be called on usage errors")
	}

	if _, err := runRoot(t, "list", "--bogus"); err == nil {
		t.Fatalf("unknown flag should fail")
	} else if f, ok := apperr.AsFriendly(err); !ok || f.Code != "CLI_USAGE" {
		t.Fatalf("expected CLI_USAGE for unknown flag, got %v", err)
	}
}

func TestReportExitCodes(t *testing.T) {
	var buf bytes.Buffer
	if code := report(&buf, apperr.New("X", "friendly text"), 0); code != 1 || !strings.Contains(buf.String(), "friendly text") {
		t.Fatalf("unexpected friendly report %d %q", code, buf.String())
	}
	buf.Reset()
	if code := report(&buf, errors.New("CFG_PARSE: secret detail"), 0); code != 1 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if strings.Contains(buf.String(), "secret detail") || !strings.Contains(buf.String(), "did not complete") {
		t.Fatalf("internal detail should stay hidden without -vv: %q", buf.String())
	}
	buf.Reset()
	if code := report(&buf, errors.New("CFG_PARSE: secret detail"), 2); code != 1 || !strings.Contains(buf.String(), "secret detail") {
		t.Fatalf("-vv should log the cause: %q", buf.String())
	}
	buf.Reset()
	if code := report(&buf, &exitError{code: 2, msg: "inconsistent"}, 0); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestPrintMessageAndJSON(t *testing.T) {
	msgOut := captureStdout(t, func() {
		if err := print(false, nil, "ok-message"); err != nil {
			t.Fatalf("print message failed: %v", err)
		}
	})
	if !strings.Contains(msgOut, "ok-message") {
		t.Fatalf("expected message output, got %q", msgOut)
	}

	jsonOut := captureStdout(t, func() {
		if err := print(true, map[string]string{"k": "v"}, "ignored"); err != nil {
			t.Fatalf("print json failed: %v", err)
		}
	})
	var parsed map[string]string
	if err := json.Unmarshal([]byte(jsonOut), &parsed); err != nil {
		t.Fatalf("expected valid json output, got %q: %v", jsonOut, err)
	}
	if parsed["k"] != "v" {
		t.Fatalf("unexpected json payload: %+v", parsed)
	}
}

func TestRegistryCommandsPersist(t *testing.T) {
	dir := t.TempDir()
	if _, err := runRoot(t, "--config-dir", dir, "registry", "add", "mine", "https://example.com/known.toml"); err != nil {
		t.Fatalf("registry add: %v", err)
	}
	out, err := runRoot(t, "--config-dir", dir, "--json", "registry", "list")
	if err != nil {
		t.Fatalf("registry list: %v", err)
	}
	var regs []registry.Registry
	if err := json.Unmarshal([]byte(out), &regs); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.Name
	}
	if strings.Join(names, ",") != "community,LOCAL,mine" {
		t.Fatalf("unexpected registries %v", names)
	}
	if _, err := runRoot(t, "--config-dir", dir, "registry", "remove", "mine"); err != nil {
		t.Fatalf("registry remove: %v", err)
	}
}

func TestCurrentWithoutAppliedTheme(t *testing.T) {
	_, err := runRoot(t, "--config-dir", t.TempDir(), "current", "border_width")
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "CUR_NONE" {
		t.Fatalf("expected CUR_NONE, got %v", err)
	}
}

func TestListEmptyAndVersion(t *testing.T) {
	out, err := runRoot(t, "--config-dir", t.TempDir(), "list")
	if err != nil || !strings.Contains(out, "No themes installed.") {
		t.Fatalf("unexpected list output %q %v", out, err)
	}
	out, err = runRoot(t, "--json", "version")
	if err != nil || !strings.Contains(out, `"version": "dev"`) {
		t.Fatalf("unexpected version output %q %v", out, err)
	}
}
