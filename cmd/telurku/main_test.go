package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func memoryEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("BACKEND_DRIVER", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "missing.env")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	for _, sub := range []string{"serve", "export", "stats"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q command", sub)
		}
	}
}

func TestExportToStdout(t *testing.T) {
	env := memoryEnv(t)
	out, err := run(t, "--env", env, "export", "--range", "week", "-o", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out, "Dashboard Export\nDate Range: week\n") {
		t.Errorf("export output = %q", out)
	}
}

func TestExportToDirectory(t *testing.T) {
	env := memoryEnv(t)
	dir := t.TempDir()
	if _, err := run(t, "--env", env, "export", "--range", "month", "-o", dir); err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "dashboard_export_month_*.csv"))
	if len(matches) != 1 {
		t.Fatalf("export files = %v", matches)
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "Barns Data") {
		t.Errorf("export file = %q", raw)
	}
}

func TestStatsOnEmptyBackend(t *testing.T) {
	env := memoryEnv(t)
	out, err := run(t, "--env", env, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Total Barns") || strings.Contains(out, "Dashboard Alert") {
		t.Errorf("stats output = %q", out)
	}
}

func TestExportSheetNotConfigured(t *testing.T) {
	env := memoryEnv(t)
	exportSheet = false
	t.Cleanup(func() { exportSheet = false })
	if _, err := run(t, "--env", env, "export", "--sheet"); err == nil {
		t.Fatal("export --sheet without a sheet configured should fail")
	}
}
