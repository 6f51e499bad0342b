package rules_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tripboard/backend/internal/logger"
	"github.com/DeafMist/tripboard/backend/internal/rules"
)

// fakeRunner records the call and what the target file held at that moment.
type fakeRunner struct {
	target   string
	err      error
	called   bool
	name     string
	args     []string
	contents string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.called = true
	f.name = name
	f.args = args
	data, _ := os.ReadFile(f.target)
	f.contents = string(data)
	return f.err
}

func setup(t *testing.T, withSource bool) (rules.Config, *fakeRunner) {
	t.Helper()
	dir := t.TempDir()
	cfg := rules.Config{
		Source:  filepath.Join(dir, "rules", "database.rules"),
		Target:  filepath.Join(dir, "database.rules"),
		Command: []string{"deploy-tool", "deploy", "--only", "rules"},
	}
	if withSource {
		require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Source), 0o755))
		require.NoError(t, os.WriteFile(cfg.Source, []byte("allow read;"), 0o644))
	}
	return cfg, &fakeRunner{target: cfg.Target}
}

func TestDeployCopiesRunsAndCleansUp(t *testing.T) {
	cfg, runner := setup(t, true)

	require.NoError(t, rules.Deploy(context.Background(), logger.Discard(), cfg, runner))

	require.True(t, runner.called)
	require.Equal(t, "deploy-tool", runner.name)
	require.Equal(t, []string{"deploy", "--only", "rules"}, runner.args)
	require.Equal(t, "allow read;", runner.contents)
	require.NoFileExists(t, cfg.Target)
}

func TestDeployMissingRules(t *testing.T) {
	cfg, runner := setup(t, false)

	err := rules.Deploy(context.Background(), logger.Discard(), cfg, runner)
	require.ErrorIs(t, err, rules.ErrRulesNotFound)
	require.False(t, runner.called)
	require.NoFileExists(t, cfg.Target)
}

func TestDeployCommandFailureStillCleansUp(t *testing.T) {
	cfg, runner := setup(t, true)
	runner.err = errors.New("exit status 2")

	err := rules.Deploy(context.Background(), logger.Discard(), cfg, runner)
	require.Error(t, err)
	require.True(t, runner.called)
	require.NoFileExists(t, cfg.Target)
}

func TestDeployEmptyCommand(t *testing.T) {
	cfg, runner := setup(t, true)
	cfg.Command = nil

	require.Error(t, rules.Deploy(context.Background(), logger.Discard(), cfg, runner))
	require.False(t, runner.called)
}

func TestDeploySourceIsTarget(t *testing.T) {
	cfg, runner := setup(t, true)
	cfg.Target = filepath.Join(filepath.Dir(cfg.Source), ".", "database.rules")

	err := rules.Deploy(context.Background(), logger.Discard(), cfg, runner)
	require.ErrorIs(t, err, rules.ErrTargetIsSource)
	require.False(t, runner.called)

	data, readErr := os.ReadFile(cfg.Source)
	require.NoError(t, readErr)
	require.Equal(t, "allow read;", string(data))
}

func TestDeployTargetLinksToSource(t *testing.T) {
	cfg, runner := setup(t, true)
	if err := os.Link(cfg.Source, cfg.Target); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	err := rules.Deploy(context.Background(), logger.Discard(), cfg, runner)
	require.ErrorIs(t, err, rules.ErrTargetIsSource)
	require.False(t, runner.called)

	data, readErr := os.ReadFile(cfg.Source)
	require.NoError(t, readErr)
	require.Equal(t, "allow read;", string(data))
}
