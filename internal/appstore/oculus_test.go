package appstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/breeze-rmm/uninstallscan/internal/health"
	"github.com/breeze-rmm/uninstallscan/internal/helper"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

// recordingQuery is a helper.QueryFunc double that counts invocations.
type recordingQuery struct {
	output string
	calls  int
	paths  []string
}

func (q *recordingQuery) run(_ context.Context, path string) string {
	q.calls++
	q.paths = append(q.paths, path)
	return q.output
}

type fillCall struct {
	executable      string
	onlyUnpopulated bool
}

type fakeExtractor struct {
	name  string
	calls []fillCall
	panic bool
}

func (x *fakeExtractor) Fill(entry *uninstaller.Entry, executable string, onlyUnpopulated bool) {
	x.calls = append(x.calls, fillCall{executable, onlyUnpopulated})
	if x.panic {
		panic("corrupt version resource")
	}
	if x.name != "" && (!onlyUnpopulated || entry.RawDisplayName == "") {
		entry.RawDisplayName = x.name
	}
}

// installHelper creates a fake helper file and returns an availability gate
// whose prerequisite always holds.
func installHelper(t *testing.T) *helper.Availability {
	t.Helper()
	dir := t.TempDir()
	path := OculusHelperPath(dir)
	if err := os.WriteFile(path, []byte("MZ"), 0o755); err != nil {
		t.Fatal(err)
	}
	return helper.NewAvailability(path, func() bool { return true })
}

func newTestFactory(t *testing.T, output string) (*OculusFactory, *recordingQuery, *fakeExtractor) {
	t.Helper()
	q := &recordingQuery{output: output}
	x := &fakeExtractor{}
	f := NewOculusFactory(OculusOptions{
		Enabled:      true,
		Availability: installHelper(t),
		Query:        q.run,
		Extractor:    x,
	})
	return f, q, x
}

func collect(f *OculusFactory) []*uninstaller.Entry {
	var out []*uninstaller.Entry
	for e := range f.Discover(context.Background()) {
		out = append(out, e)
	}
	return out
}

func TestDiscoverEmptyOutput(t *testing.T) {
	for _, output := range []string{"", "\n\n", "no records here\n"} {
		f, q, _ := newTestFactory(t, output)
		if got := collect(f); len(got) != 0 {
			t.Errorf("output %q: expected no entries, got %d", output, len(got))
		}
		if q.calls != 1 {
			t.Errorf("output %q: helper invoked %d times, want 1", output, q.calls)
		}
	}
}

func TestDiscoverUnavailableNeverSpawnsHelper(t *testing.T) {
	tests := []struct {
		name         string
		availability *helper.Availability
	}{
		{"prerequisite missing", helper.NewAvailability(installHelper(t).Path(), func() bool { return false })},
		{"helper missing", helper.NewAvailability(filepath.Join(t.TempDir(), OculusHelperName), func() bool { return true })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQuery{output: "CanonicalName: a\n"}
			mon := health.NewMonitor()
			f := NewOculusFactory(OculusOptions{Enabled: true, Availability: tt.availability, Query: q.run, Health: mon})

			if got := collect(f); len(got) != 0 {
				t.Fatalf("expected no entries, got %d", len(got))
			}
			if q.calls != 0 {
				t.Fatalf("helper invoked %d times, want 0", q.calls)
			}
			if c, _ := mon.Get(OculusID); c.Status != health.Degraded {
				t.Fatalf("health = %+v, want degraded", c)
			}
		})
	}
}

func TestDiscoverEndToEnd(t *testing.T) {
	output := `CanonicalName: beat-saber
Version: 1.29.1

InstallLocation: C:\Oculus\Software\orphan
Version: 2.0
`
	f, q, _ := newTestFactory(t, output)
	entries := collect(f)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	want := `"` + f.HelperPath() + `" /uninstall beat-saber`
	if e.UninstallString != want {
		t.Errorf("UninstallString = %q, want %q", e.UninstallString, want)
	}
	if e.QuietUninstallString != want {
		t.Errorf("QuietUninstallString = %q, want %q", e.QuietUninstallString, want)
	}
	if e.RatingID != "beat-saber" || !e.IsValid || e.Kind != uninstaller.KindOculus || e.DisplayVersion != "1.29.1" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if len(q.paths) != 1 || q.paths[0] != f.HelperPath() {
		t.Errorf("helper invoked with %v, want %s", q.paths, f.HelperPath())
	}
}

func TestDiscoverSkipsMissingOrEmptyID(t *testing.T) {
	output := "Version: 1\n\nCanonicalName:\nVersion: 2\n\nCanonicalName: keep-me\n"
	f, _, _ := newTestFactory(t, output)
	entries := collect(f)
	if len(entries) != 1 || entries[0].RatingID != "keep-me" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestDiscoverDerivesDisplayName(t *testing.T) {
	f, _, _ := newTestFactory(t, "CanonicalName: my-app-name\n")
	entries := collect(f)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].RawDisplayName != "My App Name" {
		t.Fatalf("RawDisplayName = %q, want %q", entries[0].RawDisplayName, "My App Name")
	}
}

func TestDiscoverProtectionFlag(t *testing.T) {
	tests := []struct {
		isCore string
		want   bool
	}{
		{"IsCore: true", true},
		{"IsCore: True", true},
		{"IsCore: TRUE", true},
		{"IsCore: false", false},
		{"IsCore: yes", false},
		{"IsCore: 1", false},
		{"IsCore:", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.isCore, func(t *testing.T) {
			f, _, _ := newTestFactory(t, "CanonicalName: oculus-dash\n"+tt.isCore+"\n")
			entries := collect(f)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].IsProtected != tt.want {
				t.Fatalf("IsProtected = %v, want %v", entries[0].IsProtected, tt.want)
			}
		})
	}
}

func TestDiscoverMissingLaunchFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "Game.exe")
	f, _, x := newTestFactory(t, "CanonicalName: some-game\nLaunchFile: "+missing+"\n")

	entries := collect(f)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].DisplayIcon != "" {
		t.Errorf("DisplayIcon = %q, want empty", entries[0].DisplayIcon)
	}
	if len(x.calls) != 0 {
		t.Errorf("extractor called %d times, want 0", len(x.calls))
	}
}

func TestDiscoverExistingLaunchFile(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "Beat Saber.exe")
	if err := os.WriteFile(exe, []byte("MZ"), 0o755); err != nil {
		t.Fatal(err)
	}

	f, _, x := newTestFactory(t, "CanonicalName: beat-saber\nLaunchFile: "+exe+"\n")
	x.name = "Beat Saber VR"

	entries := collect(f)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].DisplayIcon != exe {
		t.Errorf("DisplayIcon = %q, want %q", entries[0].DisplayIcon, exe)
	}
	if len(x.calls) != 1 || x.calls[0].executable != exe || !x.calls[0].onlyUnpopulated {
		t.Errorf("extractor calls = %+v", x.calls)
	}
	if entries[0].RawDisplayName != "Beat Saber VR" {
		t.Errorf("RawDisplayName = %q, extracted name should win over the derived one", entries[0].RawDisplayName)
	}
}

func TestDiscoverInstallDate(t *testing.T) {
	installDir := filepath.Join(t.TempDir(), "beat-saber")
	if err := os.Mkdir(installDir, 0o755); err != nil {
		t.Fatal(err)
	}
	output := "CanonicalName: present\nInstallLocation: " + installDir + "\n\n" +
		"CanonicalName: absent\nInstallLocation: " + filepath.Join(installDir, "gone") + "\n\n" +
		"CanonicalName: unset\n"

	f, _, _ := newTestFactory(t, output)
	entries := collect(f)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].HasInstallDate() {
		t.Error("install date should be set when the install directory exists")
	}
	if entries[0].InstallLocation != installDir {
		t.Errorf("InstallLocation = %q", entries[0].InstallLocation)
	}
	if entries[1].HasInstallDate() || entries[2].HasInstallDate() {
		t.Error("install date must stay unset when the directory is missing")
	}
}

func TestDiscoverSkipsRecordWhenExtractorPanics(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "bad.exe")
	if err := os.WriteFile(exe, []byte("MZ"), 0o755); err != nil {
		t.Fatal(err)
	}

	f, _, x := newTestFactory(t, "CanonicalName: bad\nLaunchFile: "+exe+"\n\nCanonicalName: good\n")
	x.panic = true

	entries := collect(f)
	if len(entries) != 1 || entries[0].RatingID != "good" {
		t.Fatalf("entries = %+v, want only the good record", entries)
	}
}

func TestDiscoverStopsEarly(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "game.exe")
	if err := os.WriteFile(exe, []byte("MZ"), 0o755); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for _, id := range []string{"a", "b", "c", "d"} {
		b.WriteString("CanonicalName: " + id + "\nLaunchFile: " + exe + "\n\n")
	}

	f, q, x := newTestFactory(t, b.String())
	for e := range f.Discover(context.Background()) {
		if e.RatingID == "b" {
			break
		}
	}

	if q.calls != 1 {
		t.Errorf("helper invoked %d times, want 1", q.calls)
	}
	if len(x.calls) != 2 {
		t.Errorf("normalized %d records, want 2 after stopping at the second", len(x.calls))
	}
}

func TestDiscoverRerunsHelperEachPass(t *testing.T) {
	f, q, _ := newTestFactory(t, "CanonicalName: a\n")
	collect(f)
	collect(f)
	if q.calls != 2 {
		t.Fatalf("helper invoked %d times over two passes, want 2", q.calls)
	}
}

func TestDiscoverReportsHealth(t *testing.T) {
	q := &recordingQuery{output: "CanonicalName: a\n\nVersion: 1\n"}
	mon := health.NewMonitor()
	f := NewOculusFactory(OculusOptions{Enabled: true, Availability: installHelper(t), Query: q.run, Extractor: &fakeExtractor{}, Health: mon})

	collect(f)

	c, ok := mon.Get(OculusID)
	if !ok || c.Status != health.Healthy || c.Message != "1 of 2 records usable" {
		t.Fatalf("health = %+v", c)
	}
}

func TestDiscoverReportsCancellation(t *testing.T) {
	q := &recordingQuery{output: "CanonicalName: a\n\nCanonicalName: b\n\nCanonicalName: c\n"}
	mon := health.NewMonitor()
	f := NewOculusFactory(OculusOptions{Enabled: true, Availability: installHelper(t), Query: q.run, Extractor: &fakeExtractor{}, Health: mon})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	for e := range f.Discover(ctx) {
		got = append(got, e.RatingID)
		cancel()
	}

	if len(got) != 1 {
		t.Fatalf("entries after cancel = %v, want only the first", got)
	}
	c, ok := mon.Get(OculusID)
	if !ok || c.Status != health.Degraded || !strings.Contains(c.Message, "cancelled") {
		t.Fatalf("health = %+v, want degraded and cancelled", c)
	}
}

func TestFactoryAccessors(t *testing.T) {
	f := NewOculusFactory(OculusOptions{
		HelperDir:    t.TempDir(),
		Enabled:      false,
		Availability: helper.NewAvailability("x", nil),
	})
	if f.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	if f.DisplayName() != "Oculus" {
		t.Errorf("DisplayName() = %q, want default", f.DisplayName())
	}
	if f.ID() != OculusID {
		t.Errorf("ID() = %q", f.ID())
	}

	named := NewOculusFactory(OculusOptions{Enabled: true, DisplayName: "Meta Quest", Availability: helper.NewAvailability("x", nil)})
	if !named.IsEnabled() || named.DisplayName() != "Meta Quest" {
		t.Errorf("accessors = %v, %q", named.IsEnabled(), named.DisplayName())
	}
}

func TestTitleFromID(t *testing.T) {
	tests := map[string]string{
		"my-app-name":  "My App Name",
		"beat-saber":   "Beat Saber",
		"oculus":       "Oculus",
		"a--b":         "A  B",
		"vr-chat-2024": "Vr Chat 2024",
		"vr-APP":       "Vr APP",
		"echo-VR-beta": "Echo VR Beta",
	}
	for in, want := range tests {
		if got := TitleFromID(in); got != want {
			t.Errorf("TitleFromID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUninstallCommand(t *testing.T) {
	got := UninstallCommand(`C:\Program Files\BCU\OculusHelper.exe`, "beat-saber")
	want := `"C:\Program Files\BCU\OculusHelper.exe" /uninstall beat-saber`
	if got != want {
		t.Fatalf("UninstallCommand = %q, want %q", got, want)
	}
}
