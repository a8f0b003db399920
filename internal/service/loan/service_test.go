package loan

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseCommand tests the ParseCommand function.
func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		expected Command
		ok       bool
	}{
		{value: "download", expected: CommandDownload, ok: true},
		{value: "RETURN", expected: CommandReturn, ok: true},
		{value: " info ", expected: CommandInfo, ok: true},
		{value: "metadata", expected: CommandMetadata, ok: true},
		{value: "book.odm", ok: false},
		{value: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			command, ok := ParseCommand(tt.value)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, command)
		})
	}
}

// TestExecute tests that every (command, manifest) pair is an independent unit of failure.
func TestExecute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	server := newTestLoanServer(t, nil)
	manifestPath := writeTestManifest(t, dir, server.server.URL, nil)
	missingPath := filepath.Join(dir, "missing.odm")

	service, output := newTestService(t, newTestConfig(dir))
	ctx := context.Background()

	require.NoError(t, service.Execute(ctx, CommandInfo, manifestPath))
	require.ErrorIs(t, service.Execute(ctx, CommandInfo, missingPath), ErrIO)
	require.NoError(t, service.Execute(ctx, CommandReturn, manifestPath))
	require.ErrorIs(t, service.Execute(ctx, Command("burn"), manifestPath), ErrUnknownCommand)

	assert.Contains(t, output.String(), "Foo/Bar")

	stats := service.Statistics()
	assert.Equal(t, int64(2), stats.CommandsSucceeded)
	assert.Equal(t, int64(2), stats.CommandsFailed)
	assert.Equal(t, int64(1), stats.LoansReturned)
	assert.False(t, stats.StartTime.IsZero())

	require.Len(t, stats.Errors, 2)
	assert.Equal(t, CommandInfo, stats.Errors[0].Command)
	assert.Equal(t, missingPath, stats.Errors[0].ManifestPath)
	assert.Equal(t, Command("burn"), stats.Errors[1].Command)

	// The summary only logs.
	service.PrintSummary(ctx)
}

// TestExecute_Cancelled tests that interrupted commands fail without being listed as errors.
func TestExecute_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parts := newTestParts(1)
	server := newTestLoanServer(t, parts)
	manifestPath := writeTestManifest(t, dir, server.server.URL, parts)

	service, _ := newTestService(t, newTestConfig(dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := service.Execute(ctx, CommandDownload, manifestPath)

	require.ErrorIs(t, err, context.Canceled)

	stats := service.Statistics()
	assert.Equal(t, int64(1), stats.CommandsFailed)
	assert.Empty(t, stats.Errors)
}

// TestFormatDuration tests the formatDuration function.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration time.Duration
		expected string
	}{
		{duration: 250 * time.Millisecond, expected: "250ms"},
		{duration: 42 * time.Second, expected: "42s"},
		{duration: 3*time.Minute + 5*time.Second, expected: "3m 5s"},
		{duration: 2*time.Hour + 4*time.Minute + 1*time.Second, expected: "2h 4m 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
