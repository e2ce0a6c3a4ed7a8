package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wmtheme/internal/apperr"
	"wmtheme/internal/audit"
	"wmtheme/internal/probe"
	"wmtheme/internal/theme"
)

// fakeGit materializes clones from a map of repository url to file tree.
type fakeGit struct {
	repos     map[string]map[string]string
	calls     []string
	cloneErr  error
	updateErr error
}

func (g *fakeGit) Clone(_ context.Context, url, dest string) error {
	g.calls = append(g.calls, "clone "+url)
	if g.cloneErr != nil {
		return g.cloneErr
	}
	files, ok := g.repos[url]
	if !ok {
		return errors.New("repository not found")
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return err
	}
	for rel, content := range files {
		path := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) Init(_ context.Context, dir string) error {
	g.calls = append(g.calls, "init")
	return os.MkdirAll(filepath.Join(dir, ".git"), 0o755)
}

func (g *fakeGit) Checkout(_ context.Context, _ string, rev string) error {
	g.calls = append(g.calls, "checkout "+rev)
	return nil
}

func (g *fakeGit) Update(_ context.Context, _ string, rev string) error {
	g.calls = append(g.calls, "update "+rev)
	return g.updateErr
}

func newService(t *testing.T, git *fakeGit) *Service {
	t.Helper()
	root := t.TempDir()
	return &Service{
		ThemesDir: filepath.Join(root, "themes"),
		Git:       git,
		Audit:     audit.New(filepath.Join(root, "audit.log")),
	}
}

func TestInstallClonesIntoThemesDir(t *testing.T) {
	git := &fakeGit{repos: map[string]map[string]string{
		"https://github.com/x/soothe": {"theme.toml": "border_width = 1\n"},
	}}
	svc := newService(t, git)
	pinned := theme.PinnedCommit("abc1234")
	dir, err := svc.Install(context.Background(), theme.Record{Name: "soothe", Source: "community", Repository: "https://github.com/x/soothe", Commit: &pinned})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if dir != filepath.Join(svc.ThemesDir, "soothe") {
		t.Fatalf("unexpected dir %q", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "theme.toml")); err != nil {
		t.Fatalf("expected cloned files: %v", err)
	}
	if strings.Join(git.calls, "|") != "clone https://github.com/x/soothe|checkout abc1234" {
		t.Fatalf("unexpected git calls %v", git.calls)
	}
	names, err := probe.New(svc.ThemesDir).SortedInstalled()
	if err != nil || len(names) != 1 || names[0] != "soothe" {
		t.Fatalf("expected only soothe installed, got %v %v", names, err)
	}
	last, _, _ := svc.Audit.Last()
	if last.Operation != "install" || last.Status != audit.StatusOK || last.Theme != "community/soothe" {
		t.Fatalf("unexpected audit event %+v", last)
	}
}

func TestInstallLatestSkipsCheckout(t *testing.T) {
	git := &fakeGit{repos: map[string]map[string]string{"u": {"a": "b"}}}
	svc := newService(t, git)
	latest := theme.LatestCommit()
	if _, err := svc.Install(context.Background(), theme.Record{Name: "a", Repository: "u", Commit: &latest}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(git.calls) != 1 {
		t.Fatalf("expected clone only, got %v", git.calls)
	}
}

func TestInstallRelativeDirectoryLinksIntoSources(t *testing.T) {
	git := &fakeGit{repos: map[string]map[string]string{
		"https://github.com/x/mono": {"themes/dark/theme.toml": "x = 1\n", "README": "mono"},
	}}
	svc := newService(t, git)
	dir, err := svc.Install(context.Background(), theme.Record{Name: "dark", Repository: "https://github.com/x/mono", RelativeDirectory: "themes/dark"})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	info, err := os.Lstat(dir)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("expected symlink at %s: %v", dir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "theme.toml")); err != nil {
		t.Fatalf("expected theme contents through link: %v", err)
	}
	names, _ := probe.New(svc.ThemesDir).SortedInstalled()
	if len(names) != 1 || names[0] != "dark" {
		t.Fatalf(".sources must stay hidden, got %v", names)
	}
	if svc.RepoDir(theme.Record{Name: "dark", RelativeDirectory: "themes/dark"}) != filepath.Join(svc.ThemesDir, SourcesDir, "dark") {
		t.Fatalf("unexpected repo dir")
	}
}

func TestInstallRejectsEscapingRelativeDirectory(t *testing.T) {
	git := &fakeGit{repos: map[string]map[string]string{"u": {"a": "b"}}}
	svc := newService(t, git)
	_, err := svc.Install(context.Background(), theme.Record{Name: "evil", Repository: "u", RelativeDirectory: "../../etc"})
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "INS_RELATIVE_DIR" {
		t.Fatalf("expected INS_RELATIVE_DIR, got %v", err)
	}
	if entries, _ := os.ReadDir(svc.ThemesDir); len(entries) != 0 {
		t.Fatalf("staging must be cleaned up, found %d entries", len(entries))
	}
}

func TestInstallCloneFailureIsFriendlyAndClean(t *testing.T) {
	git := &fakeGit{cloneErr: errors.New("authentication required")}
	svc := newService(t, git)
	_, err := svc.Install(context.Background(), theme.Record{Name: "soothe", Repository: "https://github.com/x/soothe"})
	f, ok := apperr.AsFriendly(err)
	if !ok || !strings.Contains(f.Message, "soothe") || !strings.Contains(f.Message, "authentication required") {
		t.Fatalf("expected friendly clone error naming the theme, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(svc.ThemesDir, "soothe")); !os.IsNotExist(err) {
		t.Fatalf("failed install must not leave a directory")
	}
	last, _, _ := svc.Audit.Last()
	if last.Status != audit.StatusFailed || last.Code != "INS_CLONE" {
		t.Fatalf("unexpected audit event %+v", last)
	}
}

func TestInstallRefusesExistingDirectory(t *testing.T) {
	svc := newService(t, &fakeGit{})
	if err := os.MkdirAll(filepath.Join(svc.ThemesDir, "soothe"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := svc.Install(context.Background(), theme.Record{Name: "soothe", Repository: "u"})
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "INS_EXISTS" {
		t.Fatalf("expected INS_EXISTS, got %v", err)
	}
}

func TestInstallRequiresRepository(t *testing.T) {
	svc := newService(t, &fakeGit{})
	if _, err := svc.Install(context.Background(), theme.Record{Name: "soothe"}); err == nil {
		t.Fatalf("expected missing repository error")
	}
}

func TestInstallRejectsOptionLikeRepository(t *testing.T) {
	git := &fakeGit{}
	svc := newService(t, git)
	_, err := svc.Install(context.Background(), theme.Record{Name: "soothe", Repository: "--upload-pack=touch /tmp/x"})
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "INS_REPOSITORY" {
		t.Fatalf("expected INS_REPOSITORY, got %v", err)
	}
	pin := theme.PinnedCommit("--orphan")
	_, err = svc.Install(context.Background(), theme.Record{Name: "soothe", Repository: "https://example.com/soothe", Commit: &pin})
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "INS_REPOSITORY" {
		t.Fatalf("expected INS_REPOSITORY for commit, got %v", err)
	}
	if len(git.calls) != 0 {
		t.Fatalf("git must not run, got %v", git.calls)
	}
}

func TestApplySwapsCurrentLink(t *testing.T) {
	svc := newService(t, &fakeGit{})
	for _, name := range []string{"theme-a", "theme-b"} {
		if err := os.MkdirAll(filepath.Join(svc.ThemesDir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for _, name := range []string{"theme-a", "theme-b"} {
		backup, err := svc.Apply(name)
		if err != nil || backup != "" {
			t.Fatalf("apply %s: %q %v", name, backup, err)
		}
		cur, ok, err := probe.New(svc.ThemesDir).CurrentThemeName()
		if err != nil || !ok || cur != name {
			t.Fatalf("expected current %s, got %q %v %v", name, cur, ok, err)
		}
	}
}

func TestApplyMovesForeignCurrentAside(t *testing.T) {
	svc := newService(t, &fakeGit{})
	if err := os.MkdirAll(filepath.Join(svc.ThemesDir, "theme-a"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	foreign := filepath.Join(svc.ThemesDir, "current")
	if err := os.MkdirAll(foreign, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(foreign, "theme.toml"), []byte("mine"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	backup, err := svc.Apply("theme-a")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(backup), ".current.bak-") {
		t.Fatalf("unexpected backup %q", backup)
	}
	if blob, err := os.ReadFile(filepath.Join(backup, "theme.toml")); err != nil || string(blob) != "mine" {
		t.Fatalf("foreign contents lost: %q %v", blob, err)
	}
	if cur, ok, _ := probe.New(svc.ThemesDir).CurrentThemeName(); !ok || cur != "theme-a" {
		t.Fatalf("expected current theme-a, got %q", cur)
	}
}

func TestApplyRequiresInstalledTheme(t *testing.T) {
	svc := newService(t, &fakeGit{})
	_, err := svc.Apply("ghost")
	if f, ok := apperr.AsFriendly(err); !ok || f.Code != "APPLY_NOT_INSTALLED" {
		t.Fatalf("expected APPLY_NOT_INSTALLED, got %v", err)
	}
}

func TestUninstallRemovesDirectoryAndCurrentLink(t *testing.T) {
	git := &fakeGit{repos: map[string]map[string]string{"u": {"sub/theme.toml": "x"}}}
	svc := newService(t, git)
	if _, err := svc.Install(context.Background(), theme.Record{Name: "mono", Repository: "u", RelativeDirectory: "sub"}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := svc.Apply("mono"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.Uninstall("mono"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	for _, path := range []string{
		filepath.Join(svc.ThemesDir, "mono"),
		filepath.Join(svc.ThemesDir, SourcesDir, "mono"),
		filepath.Join(svc.ThemesDir, "current"),
	} {
		if _, err := os.Lstat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, got %v", path, err)
		}
	}
}

func TestUninstallKeepsOtherCurrentLink(t *testing.T) {
	svc := newService(t, &fakeGit{})
	for _, name := range []string{"a", "b"} {
		if err := os.MkdirAll(filepath.Join(svc.ThemesDir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if _, err := svc.Apply("a"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.Uninstall("b"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if cur, ok, _ := probe.New(svc.ThemesDir).CurrentThemeName(); !ok || cur != "a" {
		t.Fatalf("current link must stay on a, got %q", cur)
	}
}

func TestNewInitializesRepository(t *testing.T) {
	git := &fakeGit{}
	svc := newService(t, git)
	dir, err := svc.New(context.Background(), "my-theme")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Fatalf("expected git repository: %v", err)
	}
	if _, err := svc.New(context.Background(), "my-theme"); err == nil {
		t.Fatalf("expected existing theme error")
	}
	if _, err := svc.New(context.Background(), "Bad/Name"); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestUpgradeUsesPinnedRevision(t *testing.T) {
	git := &fakeGit{}
	svc := newService(t, git)
	if err := os.MkdirAll(filepath.Join(svc.ThemesDir, "a", ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	pinned := theme.PinnedCommit("deadbeef")
	if err := svc.Upgrade(context.Background(), theme.Record{Name: "a", Commit: &pinned}); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	latest := theme.LatestCommit()
	if err := svc.Upgrade(context.Background(), theme.Record{Name: "a", Commit: &latest}); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if strings.Join(git.calls, "|") != "update deadbeef|update " {
		t.Fatalf("unexpected calls %q", git.calls)
	}
}

func TestUpgradeRequiresCheckout(t *testing.T) {
	svc := newService(t, &fakeGit{})
	if err := os.MkdirAll(filepath.Join(svc.ThemesDir, "a"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := svc.Upgrade(context.Background(), theme.Record{Name: "a"}); err == nil {
		t.Fatalf("expected not a repository error")
	}
}
