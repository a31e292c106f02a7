package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/ifacegen/internal/merge"
	"github.com/olehluchkiv/ifacegen/internal/pipeline"
	"github.com/olehluchkiv/ifacegen/internal/report"
)

// ---------------------------------------------------------------------------
// reorderArgs tests
// ---------------------------------------------------------------------------

func TestReorderArgs_NoArgs(t *testing.T) {
	// With no arguments input stays "" and main() prints usage.
	flags, positional := reorderArgs(nil)
	assert.Nil(t, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_PositionalOnly(t *testing.T) {
	flags, positional := reorderArgs([]string{"./manifests"})
	assert.Nil(t, flags)
	assert.Equal(t, []string{"./manifests"}, positional)
}

func TestReorderArgs_StdinIsPositional(t *testing.T) {
	flags, positional := reorderArgs([]string{"-only-public", "-"})
	assert.Equal(t, []string{"-only-public"}, flags)
	assert.Equal(t, []string{"-"}, positional)
}

func TestReorderArgs_PositionalBeforeFlags(t *testing.T) {
	// The whole point of reorderArgs: allow positional args before flags.
	flags, positional := reorderArgs([]string{"./pkg", "-output", "report.yaml"})
	assert.Equal(t, []string{"-output", "report.yaml"}, flags)
	assert.Equal(t, []string{"./pkg"}, positional)
}

func TestReorderArgs_PositionalBetweenFlags(t *testing.T) {
	flags, positional := reorderArgs([]string{"-no-inherit", "./pkg", "-exclude", "A,B"})
	assert.Equal(t, []string{"-no-inherit", "-exclude", "A,B"}, flags)
	assert.Equal(t, []string{"./pkg"}, positional)
}

func TestReorderArgs_ValueFlagWithEquals(t *testing.T) {
	// When a value flag uses "=" syntax, the value is part of the same arg.
	flags, positional := reorderArgs([]string{"-marker-base=", "./pkg"})
	assert.Equal(t, []string{"-marker-base="}, flags)
	assert.Equal(t, []string{"./pkg"}, positional)
}

func TestReorderArgs_DoubleHyphenValueFlag(t *testing.T) {
	flags, positional := reorderArgs([]string{"--imports", "XCTest", "./pkg"})
	assert.Equal(t, []string{"--imports", "XCTest"}, flags)
	assert.Equal(t, []string{"./pkg"}, positional)
}

func TestReorderArgs_BoolFlagsDoNotConsumeNextArg(t *testing.T) {
	for _, flag := range []string{"-only-public", "-no-inherit", "-copy-imports", "-include-stdlib"} {
		t.Run(flag, func(t *testing.T) {
			flags, positional := reorderArgs([]string{flag, "./pkg"})
			assert.Equal(t, []string{flag}, flags)
			assert.Equal(t, []string{"./pkg"}, positional)
		})
	}
}

func TestReorderArgs_AllValueFlags(t *testing.T) {
	// Exercise every flag that takes a value argument.
	args := []string{
		"-path", "/tmp/repo",
		"-format", "manifest",
		"-marker-base", "NSObjectProtocol",
		"-imports", "XCTest",
		"-exclude", "Internal",
		"-output", "out.yaml",
		"-report-format", "json",
		"-diagram", "out.mmd",
		"-log-file", "app.log",
		"-log-level", "debug",
		"-workers", "4",
	}
	flags, positional := reorderArgs(args)
	assert.Equal(t, args, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_HelpFlag(t *testing.T) {
	// -help is treated as a flag (not positional). Go's FlagSet handles it
	// by printing usage and exiting. reorderArgs must not misclassify it.
	flags, positional := reorderArgs([]string{"--help"})
	assert.Equal(t, []string{"--help"}, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_ValueFlagAtEnd(t *testing.T) {
	// If a value flag is at the very end with no following arg, it stays
	// as a flag (flag.Parse will report the error).
	flags, positional := reorderArgs([]string{"-output"})
	assert.Equal(t, []string{"-output"}, flags)
	assert.Nil(t, positional)
}

// ---------------------------------------------------------------------------
// parseLogLevel tests
// ---------------------------------------------------------------------------

func TestParseLogLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	_, err := parseLogLevel("trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Contains(t, err.Error(), "trace")
}

// ---------------------------------------------------------------------------
// config helper tests
// ---------------------------------------------------------------------------

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"A", "B"}, splitList("A, ,B"))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("IFACEGEN_TEST_SET", "custom")
	t.Setenv("IFACEGEN_TEST_EMPTY", "")
	assert.Equal(t, "custom", envOr("IFACEGEN_TEST_SET", "default"))
	// An empty value is a deliberate choice, e.g. disabling the marker base.
	assert.Equal(t, "", envOr("IFACEGEN_TEST_EMPTY", "default"))
	assert.Equal(t, "default", envOr("IFACEGEN_TEST_UNSET_VARIABLE", "default"))
}

func TestEnvInt(t *testing.T) {
	t.Setenv("IFACEGEN_TEST_WORKERS", "4")
	t.Setenv("IFACEGEN_TEST_BAD", "four")
	assert.Equal(t, 4, envInt("IFACEGEN_TEST_WORKERS", 0))
	assert.Equal(t, 2, envInt("IFACEGEN_TEST_BAD", 2))
	assert.Equal(t, 2, envInt("IFACEGEN_TEST_UNSET_VARIABLE", 2))
}

// ---------------------------------------------------------------------------
// run tests
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestRun_ReportToStdoutAndDiagram(t *testing.T) {
	diagramFile := filepath.Join(t.TempDir(), "graph.mmd")
	opts := options{
		input:        pipeline.Input{Path: filepath.Join("testdata", "manifests", "reporting")},
		config:       pipeline.Config{MarkerBase: merge.DefaultMarkerBase, Exclude: []string{"Internal"}},
		reportFormat: report.FormatYAML,
		diagram:      diagramFile,
	}

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout, testLogger()))

	got := stdout.String()
	assert.Contains(t, got, "key: ErrorReporting")
	assert.Contains(t, got, "identifier: logCheckpoint")
	assert.NotContains(t, got, "key: Internal")

	data, err := os.ReadFile(diagramFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%%{init:"))
	assert.Contains(t, string(data), "ErrorReporting --|> Tracking")
}

func TestRun_ReportToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.json")
	opts := options{
		input:        pipeline.Input{Path: filepath.Join("testdata", "manifests", "reporting")},
		output:       output,
		reportFormat: report.FormatJSON,
	}

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout, testLogger()))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key": "ErrorReporting"`)
}

func TestRun_CycleIsReported(t *testing.T) {
	opts := options{input: pipeline.Input{Path: filepath.Join("testdata", "manifests", "cycle")}}

	var stdout bytes.Buffer
	err := run(context.Background(), opts, &stdout, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, merge.ErrCircularInheritance)
	assert.Empty(t, stdout.String())
}
