package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func reportURL(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return "file://" + dir
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"explode"}},
		{"unknown flag", []string{"create", "--bogus"}},
		{"bad flag value", []string{"create", filepath.Join(dir, "a"), "1KB", "--workers", "many"}},
		{"bad buffer", []string{"create", filepath.Join(dir, "b"), "1KB", "--buffer", "lots"}},
		{"negative workers", []string{"create", filepath.Join(dir, "c"), "1KB", "--workers", "-1"}},
		{"missing size", []string{"create", filepath.Join(dir, "d")}},
		{"missing path", []string{"create"}},
		{"bad size unit", []string{"create", filepath.Join(dir, "e"), "12XB"}},
		{"zero size", []string{"create", filepath.Join(dir, "f"), "0"}},
		{"bad fill", []string{"create", filepath.Join(dir, "g"), "1KB", "--fill", "ones"}},
		{"bad allocation", []string{"create", filepath.Join(dir, "h"), "1KB", "--allocation", "magic"}},
		{"missing config file", []string{"create", "-c", filepath.Join(dir, "nope.yaml")}},
		{"report without bucket", []string{"report", "--list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != ExitInvalidArgs {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, ExitInvalidArgs, stderr)
			}
			if !strings.Contains(stderr, "Error:") {
				t.Errorf("stderr = %q, want an error message", stderr)
			}
		})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("usage errors created %d files", len(entries))
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	code, stdout, stderr := runCLI(t, "create", path, "64", "KB",
		"--workers", "4", "--buffer", "4KB", "--fill", "random", "--log-level", "error")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 64<<10 {
		t.Errorf("size = %d, want %d", info.Size(), 64<<10)
	}
	for _, want := range []string{"Job:", "Workers: 4", "Created:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestCreateQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.bin")

	code, stdout, stderr := runCLI(t, "create", path, "1000", "--quiet", "--log-level", "error")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
}

func TestCreateFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "from-config.bin")
	cfgPath := filepath.Join(dir, "job.yaml")
	yaml := fmt.Sprintf("path: %s\nsize: 8KB\nworkers: 2\nbuffer_size: 1KB\nlog:\n  level: error\n", path)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "create", "-c", cfgPath, "--quiet")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 8<<10 {
		t.Errorf("size = %d, want %d", info.Size(), 8<<10)
	}
}

func TestCreateAllocationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "data.bin")

	code, _, stderr := runCLI(t, "create", path, "1KB", "--quiet", "--log-level", "error")
	if code != ExitAllocationError {
		t.Errorf("exit code = %d, want %d (stderr: %s)", code, ExitAllocationError, stderr)
	}
}

func TestCreateWithMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metered.bin")

	code, _, stderr := runCLI(t, "create", path, "32KB", "--quiet", "--metrics-address", "127.0.0.1:0")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "serving metrics") {
		t.Errorf("stderr missing metrics address:\n%s", stderr)
	}
}

func TestCreateMetricsAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	path := filepath.Join(t.TempDir(), "unmetered.bin")
	code, _, stderr := runCLI(t, "create", path, "32KB", "--quiet", "--metrics-address", ln.Addr().String())
	if code != ExitSinkError {
		t.Errorf("exit code = %d, want %d (stderr: %s)", code, ExitSinkError, stderr)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file created although the metrics endpoint failed")
	}
}

func TestLogServeError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	errs := make(chan error, 1)
	errs <- errors.New("accept: too many open files")
	logServeError(errs, log)
	if !strings.Contains(buf.String(), "metrics server stopped") ||
		!strings.Contains(buf.String(), "too many open files") {
		t.Errorf("serve error not logged: %q", buf.String())
	}

	buf.Reset()
	errs <- nil
	logServeError(errs, log)
	if buf.Len() != 0 {
		t.Errorf("clean shutdown logged: %q", buf.String())
	}
}

func TestCreateWithReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reported.bin")
	bucket := reportURL(t)

	code, _, stderr := runCLI(t, "create", path, "16KB", "--workers", "2", "--buffer", "1KB",
		"--quiet", "--log-level", "error", "--report-url", bucket)
	if code != ExitSuccess {
		t.Fatalf("create exit code = %d, stderr: %s", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "report", "--list", "--report-url", bucket)
	if code != ExitSuccess {
		t.Fatalf("report --list exit code = %d, stderr: %s", code, stderr)
	}
	ids := strings.Fields(stdout)
	if len(ids) != 1 {
		t.Fatalf("listed %d reports, want 1: %q", len(ids), stdout)
	}

	code, stdout, stderr = runCLI(t, "report", ids[0], "--report-url", bucket)
	if code != ExitSuccess {
		t.Fatalf("report exit code = %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{ids[0], "succeeded", path, "16.00 KB", "Operations: 16"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, "report", ids[0], "--json", "--report-url", bucket)
	if code != ExitSuccess {
		t.Fatalf("report --json exit code = %d", code)
	}
	if !strings.Contains(stdout, `"bytes_written": 16384`) {
		t.Errorf("json report missing bytes_written:\n%s", stdout)
	}
}

func TestReportNotFound(t *testing.T) {
	bucket := reportURL(t)

	code, _, stderr := runCLI(t, "report", "no-such-job", "--report-url", bucket)
	if code != ExitGeneralError {
		t.Errorf("exit code = %d, want %d (stderr: %s)", code, ExitGeneralError, stderr)
	}
	if !strings.Contains(stderr, "no report for job no-such-job") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planned.bin")

	code, stdout, stderr := runCLI(t, "plan", path, "100", "--workers", "3", "--buffer", "16")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"Workers: 3", "Total writes: 9"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan missing %q:\n%s", want, stdout)
		}
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	var rows [][]string
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) == 6 && f[0] != "WORKER" {
			rows = append(rows, f)
		}
	}
	want := [][2]string{{"0", "33"}, {"33", "66"}, {"66", "100"}}
	if len(rows) != len(want) {
		t.Fatalf("got %d extent rows, want %d:\n%s", len(rows), len(want), stdout)
	}
	for i, row := range rows {
		if row[1] != want[i][0] || row[2] != want[i][1] {
			t.Errorf("row %d = [%s, %s), want [%s, %s)", i, row[1], row[2], want[i][0], want[i][1])
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("plan created %s", path)
	}
}

func TestPlanCapsWorkersAtSize(t *testing.T) {
	code, stdout, stderr := runCLI(t, "plan", filepath.Join(t.TempDir(), "tiny.bin"), "3", "--workers", "8")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Workers: 3") {
		t.Errorf("plan did not cap workers:\n%s", stdout)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{usageError("bad"), ExitInvalidArgs},
		{withCode(ExitSinkError, errors.New("bucket")), ExitSinkError},
		{&rangefill.Error{Kind: rangefill.ErrInvalidConfiguration}, ExitInvalidArgs},
		{&rangefill.Error{Kind: rangefill.ErrAllocation, Err: os.ErrPermission}, ExitAllocationError},
		{&rangefill.Error{Kind: rangefill.ErrWrite, Err: errors.New("eio")}, ExitWriteError},
		{&rangefill.Error{Kind: rangefill.ErrCanceled}, ExitCanceled},
		{fmt.Errorf("wrapped: %w", &rangefill.Error{Kind: rangefill.ErrWrite}), ExitWriteError},
	}

	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseSizeArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    int64
		wantErr bool
	}{
		{[]string{"100"}, 100, false},
		{[]string{"100MB"}, 100 << 20, false},
		{[]string{"1.5", "GB"}, 3 << 29, false},
		{[]string{"0"}, 0, true},
		{[]string{"-5"}, 0, true},
		{[]string{"ten"}, 0, true},
	}

	for _, tt := range tests {
		got, err := parseSize(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.args, got, tt.want)
		}
	}
}
