package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/karvell/temurin-updater/internal/adoptium"
	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/javaver"
	"github.com/karvell/temurin-updater/internal/logging"
)

type runnerCall struct {
	Exe  string
	Args []string
}

// scriptedRunner replays exit codes in order and can drop log content at
// the /L*v path of each call.
type scriptedRunner struct {
	calls []runnerCall
	codes []int
	logs  []string
}

func (r *scriptedRunner) Run(_ context.Context, exe string, args []string) (int, error) {
	idx := len(r.calls)
	r.calls = append(r.calls, runnerCall{Exe: exe, Args: append([]string(nil), args...)})

	if idx < len(r.logs) && r.logs[idx] != "" {
		if path := logArg(args); path != "" {
			os.WriteFile(path, []byte(r.logs[idx]), 0644)
		}
	}

	code := 0
	if idx < len(r.codes) {
		code = r.codes[idx]
	}
	return code, nil
}

func logArg(args []string) string {
	for i, a := range args {
		if a == "/L*v" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// fakeInspector replays process snapshots; the last one repeats.
type fakeInspector struct {
	snapshots [][]int32
	calls     int
}

func (f *fakeInspector) FindRunning(names []string) ([]int32, error) {
	idx := f.calls
	f.calls++
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	return f.snapshots[idx], nil
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argValue(args []string, prefix string) (string, bool) {
	for _, a := range args {
		if strings.HasPrefix(a, prefix) {
			return strings.TrimPrefix(a, prefix), true
		}
	}
	return "", false
}

func jreAsset(stream dist.Stream, raw string, v javaver.Version) *adoptium.ReleaseAsset {
	return &adoptium.ReleaseAsset{
		Stream:     stream,
		Type:       dist.Runtime,
		Arch:       dist.ArchX64,
		Name:       fmt.Sprintf("OpenJDK%sU-jre_x64_windows_hotspot_%s.msi", stream, raw),
		RawVersion: raw,
		Version:    v,
	}
}

func newSupervisor(t *testing.T, r Runner, inspector *fakeInspector) *Supervisor {
	t.Helper()
	return &Supervisor{
		Runner: r,
		Procs:  inspector,
		LogDir: t.TempDir(),
		now:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestInstallFreshSelectsFeatures(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0}}
	s := newSupervisor(t, runner, &fakeInspector{})
	s.InstallRoot = `C:\Program Files\Eclipse Adoptium`

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	outcome, err := s.Install(context.Background(), nil, asset, `C:\staging\pkg.msi`)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("calls=%d want=1", len(runner.calls))
	}
	call := runner.calls[0]
	if call.Exe != "msiexec" {
		t.Fatalf("exe=%q want=msiexec", call.Exe)
	}
	if call.Args[0] != "/i" || call.Args[1] != `C:\staging\pkg.msi` {
		t.Fatalf("args=%v want /i with the staged MSI first", call.Args)
	}
	for _, flag := range []string{"/qn", "/norestart"} {
		if !hasArg(call.Args, flag) {
			t.Fatalf("args=%v missing %s", call.Args, flag)
		}
	}

	features, ok := argValue(call.Args, "ADDLOCAL=")
	if !ok {
		t.Fatalf("args=%v missing ADDLOCAL", call.Args)
	}
	if features != "FeatureMain,FeatureEnvironment,FeatureJarFileRunWith,FeatureJavaHome" {
		t.Fatalf("ADDLOCAL=%q", features)
	}

	installDir, ok := argValue(call.Args, "INSTALLDIR=")
	if !ok {
		t.Fatalf("args=%v missing INSTALLDIR", call.Args)
	}
	if want := filepath.Join(s.InstallRoot, "jre-17.0.13_11"); installDir != want {
		t.Fatalf("INSTALLDIR=%q want=%q", installDir, want)
	}

	wantLog := filepath.Join(s.LogDir, asset.Name+".install.20250601-120000.log")
	if path := logArg(call.Args); path != wantLog {
		t.Fatalf("log path=%q want=%q", path, wantLog)
	}
	if outcome.LogPath != wantLog {
		t.Fatalf("Outcome.LogPath=%q want=%q", outcome.LogPath, wantLog)
	}
	if outcome.RestartPending || outcome.Uninstalled {
		t.Fatalf("outcome=%+v want plain success", outcome)
	}
}

func TestInstallDevelopmentAddsDevTools(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0}}
	s := newSupervisor(t, runner, &fakeInspector{})

	asset := jreAsset(dist.Stream21, "21.0.5_11", javaver.Modern{Major: 21, Patch: 5, Build: []int{11}})
	asset.Type = dist.Development

	if _, err := s.Install(context.Background(), nil, asset, "pkg.msi"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	features, _ := argValue(runner.calls[0].Args, "ADDLOCAL=")
	if !strings.Contains(features, "FeatureDevTools") {
		t.Fatalf("ADDLOCAL=%q missing FeatureDevTools", features)
	}
}

func TestUpdateOmitsFeatureSelection(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0}}
	s := newSupervisor(t, runner, &fakeInspector{})
	s.InstallRoot = `C:\Program Files\Eclipse Adoptium`

	existing := &Existing{
		DisplayName: "Eclipse Temurin JRE with Hotspot 17.0.9+9 (x64)",
		ProductCode: "{AAAA-1111}",
		Version:     javaver.Modern{Major: 17, Patch: 9, Build: []int{9}},
	}
	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})

	outcome, err := s.Install(context.Background(), existing, asset, "pkg.msi")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("calls=%d want=1 (no uninstall for modern streams)", len(runner.calls))
	}
	args := runner.calls[0].Args
	if _, ok := argValue(args, "ADDLOCAL="); ok {
		t.Fatalf("args=%v must not pin features on update", args)
	}
	if _, ok := argValue(args, "INSTALLDIR="); ok {
		t.Fatalf("args=%v must not pin the install dir on update", args)
	}
	if outcome.Uninstalled {
		t.Fatal("Uninstalled=true want=false")
	}
}

func TestRevisionUninstallRunsFirst(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0, 0}}
	s := newSupervisor(t, runner, &fakeInspector{})

	existing := &Existing{
		DisplayName: "Eclipse Temurin JRE with Hotspot 8u462-b06 (x64)",
		ProductCode: "{BBBB-2222}",
		Version:     javaver.Legacy{Major: 8, Update: 462, Build: 6},
	}
	asset := jreAsset(dist.Stream8, "8u462b08", javaver.Legacy{Major: 8, Update: 462, Build: 8})

	outcome, err := s.Install(context.Background(), existing, asset, "pkg.msi")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("calls=%d want uninstall then install", len(runner.calls))
	}

	un := runner.calls[0].Args
	if un[0] != "/x" || un[1] != "{BBBB-2222}" {
		t.Fatalf("uninstall args=%v", un)
	}
	for _, flag := range []string{"/qn", "/norestart"} {
		if !hasArg(un, flag) {
			t.Fatalf("uninstall args=%v missing %s", un, flag)
		}
	}
	if path := logArg(un); !strings.Contains(path, ".uninstall.") {
		t.Fatalf("uninstall log path=%q", path)
	}

	if runner.calls[1].Args[0] != "/i" {
		t.Fatalf("second call=%v want the install", runner.calls[1].Args)
	}
	if !outcome.Uninstalled {
		t.Fatal("Uninstalled=false want=true")
	}
}

func TestLegacyDifferentUpdateSkipsUninstall(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0}}
	s := newSupervisor(t, runner, &fakeInspector{})

	existing := &Existing{
		DisplayName: "Eclipse Temurin JRE with Hotspot 8u432-b06 (x64)",
		ProductCode: "{CCCC-3333}",
		Version:     javaver.Legacy{Major: 8, Update: 432, Build: 6},
	}
	asset := jreAsset(dist.Stream8, "8u462b08", javaver.Legacy{Major: 8, Update: 462, Build: 8})

	outcome, err := s.Install(context.Background(), existing, asset, "pkg.msi")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].Args[0] != "/i" {
		t.Fatalf("calls=%v want a single install", runner.calls)
	}
	if outcome.Uninstalled {
		t.Fatal("Uninstalled=true want=false")
	}
}

func TestFailedUninstallAbortsInstall(t *testing.T) {
	runner := &scriptedRunner{codes: []int{1603}}
	s := newSupervisor(t, runner, &fakeInspector{})

	existing := &Existing{
		DisplayName: "Eclipse Temurin JRE with Hotspot 8u462-b06 (x64)",
		ProductCode: "{DDDD-4444}",
		Version:     javaver.Legacy{Major: 8, Update: 462, Build: 6},
	}
	asset := jreAsset(dist.Stream8, "8u462b08", javaver.Legacy{Major: 8, Update: 462, Build: 8})

	_, err := s.Install(context.Background(), existing, asset, "pkg.msi")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err=%v want ExitError", err)
	}
	if exitErr.Op != "uninstall" || exitErr.Code != 1603 {
		t.Fatalf("ExitError=%+v want uninstall/1603", exitErr)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("calls=%d, install must not run after a failed uninstall", len(runner.calls))
	}
}

func TestRestartPendingCodes(t *testing.T) {
	for _, code := range []int{3010, 1641, 3011} {
		t.Run(fmt.Sprintf("code %d", code), func(t *testing.T) {
			runner := &scriptedRunner{codes: []int{code}}
			s := newSupervisor(t, runner, &fakeInspector{})

			asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
			outcome, err := s.Install(context.Background(), nil, asset, "pkg.msi")
			if err != nil {
				t.Fatalf("Install failed: %v", err)
			}
			if !outcome.RestartPending {
				t.Fatal("RestartPending=false want=true")
			}
		})
	}
}

func TestRestartPendingUninstallContinues(t *testing.T) {
	runner := &scriptedRunner{codes: []int{3010, 0}}
	s := newSupervisor(t, runner, &fakeInspector{})

	existing := &Existing{
		DisplayName: "Eclipse Temurin JRE with Hotspot 8u462-b06 (x64)",
		ProductCode: "{EEEE-5555}",
		Version:     javaver.Legacy{Major: 8, Update: 462, Build: 6},
	}
	asset := jreAsset(dist.Stream8, "8u462b08", javaver.Legacy{Major: 8, Update: 462, Build: 8})

	outcome, err := s.Install(context.Background(), existing, asset, "pkg.msi")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("calls=%d want=2", len(runner.calls))
	}
	if !outcome.Uninstalled {
		t.Fatal("Uninstalled=false want=true")
	}
}

func TestInstallFailureSurfacesLogHints(t *testing.T) {
	logBody := strings.Join([]string{
		"MSI (s) (A4:5C): Machine policy value 'DisableRollback' is 0",
		"MSI (s) (A4:5C): Note: 1: 1708",
		"Error 1603: fatal error during installation",
		"MSI (s) (A4:5C): Product: Eclipse Temurin JRE -- Installation failed.",
		"MSI (s) (A4:5C): Windows Installer installed the product.",
	}, "\r\n")
	runner := &scriptedRunner{codes: []int{1603}, logs: []string{logBody}}
	s := newSupervisor(t, runner, &fakeInspector{})

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	_, err := s.Install(context.Background(), nil, asset, "pkg.msi")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err=%v want ExitError", err)
	}
	if exitErr.Code != 1603 {
		t.Fatalf("Code=%d want=1603", exitErr.Code)
	}
	if len(exitErr.LogHints) != 2 {
		t.Fatalf("LogHints=%v want the error and failure lines", exitErr.LogHints)
	}
	if !strings.Contains(exitErr.LogHints[0], "Error 1603") {
		t.Fatalf("LogHints[0]=%q", exitErr.LogHints[0])
	}
	if !strings.Contains(exitErr.LogHints[1], "Installation failed") {
		t.Fatalf("LogHints[1]=%q", exitErr.LogHints[1])
	}
}

func TestWaitsForBlockingProcesses(t *testing.T) {
	runner := &scriptedRunner{codes: []int{0}}
	inspector := &fakeInspector{snapshots: [][]int32{{4242}, {4242}, {}}}
	s := newSupervisor(t, runner, inspector)
	s.PollInterval = 10 * time.Second

	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	if _, err := s.Install(context.Background(), nil, asset, "pkg.msi"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if len(slept) != 2 || slept[0] != 10*time.Second || slept[1] != 10*time.Second {
		t.Fatalf("slept=%v want two 10s polls", slept)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("calls=%d want=1 after the wait clears", len(runner.calls))
	}
}

func TestWaitEmitsMinuteNotice(t *testing.T) {
	var console bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &console})
	if err != nil {
		t.Fatalf("building logger: %v", err)
	}

	busy := make([][]int32, 8)
	for i := range busy {
		busy[i] = []int32{4242}
	}
	busy[7] = nil

	runner := &scriptedRunner{codes: []int{0}}
	s := newSupervisor(t, runner, &fakeInspector{snapshots: busy})
	s.Logger = logger
	s.PollInterval = 10 * time.Second
	s.sleep = func(context.Context, time.Duration) error { return nil }

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	if _, err := s.Install(context.Background(), nil, asset, "pkg.msi"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	out := console.String()
	if !strings.Contains(out, "waiting for them to exit") {
		t.Fatalf("console=%q missing initial wait notice", out)
	}
	if !strings.Contains(out, "still waiting on 1 java process(es) after 1m0s") {
		t.Fatalf("console=%q missing minute notice", out)
	}
}

func TestWaitTimeoutGivesUp(t *testing.T) {
	runner := &scriptedRunner{}
	s := newSupervisor(t, runner, &fakeInspector{snapshots: [][]int32{{4242}}})
	s.PollInterval = 10 * time.Second
	s.WaitTimeout = 30 * time.Second

	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	_, err := s.Install(context.Background(), nil, asset, "pkg.msi")
	if err == nil {
		t.Fatal("Install succeeded despite a busy runtime")
	}
	if !strings.Contains(err.Error(), "still running") {
		t.Fatalf("err=%v want wait-timeout message", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("calls=%d, msiexec must not run while blocked", len(runner.calls))
	}
	if len(slept) != 3 {
		t.Fatalf("slept=%v want three polls before giving up", slept)
	}
}

func TestWaitCancellation(t *testing.T) {
	runner := &scriptedRunner{}
	s := newSupervisor(t, runner, &fakeInspector{snapshots: [][]int32{{4242}}})
	s.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	asset := jreAsset(dist.Stream17, "17.0.13_11", javaver.Modern{Major: 17, Patch: 13, Build: []int{11}})
	_, err := s.Install(context.Background(), nil, asset, "pkg.msi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("calls=%d want none", len(runner.calls))
	}
}
