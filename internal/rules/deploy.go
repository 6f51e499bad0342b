// Package rules pushes the database security rules with an external deploy tool.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	// ErrRulesNotFound means the source rules file does not exist.
	ErrRulesNotFound = errors.New("rules file not found")
	// ErrTargetIsSource means the deploy copy would overwrite the source rules.
	ErrTargetIsSource = errors.New("rules target is the source file")
)

// Runner executes the deploy command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands on the host, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name with args and waits for it.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// Config says where the rules live and how to deploy them.
type Config struct {
	Source  string
	Target  string
	Command []string
}

// Deploy copies Source to Target, runs Command and always removes Target again.
// A missing Source fails before anything is written.
func Deploy(ctx context.Context, log *slog.Logger, cfg Config, runner Runner) (err error) {
	if len(cfg.Command) == 0 {
		return errors.New("deploy command is empty")
	}

	srcInfo, statErr := os.Stat(cfg.Source)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRulesNotFound, cfg.Source)
		}
		return fmt.Errorf("stat rules: %w", statErr)
	}
	if sameFile(cfg.Source, cfg.Target, srcInfo) {
		return fmt.Errorf("%w: %s", ErrTargetIsSource, cfg.Target)
	}

	defer func() {
		if rmErr := os.Remove(cfg.Target); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn("remove temporary rules copy", slog.String("path", cfg.Target), slog.Any("err", rmErr))
			if err == nil {
				err = fmt.Errorf("remove temporary rules copy: %w", rmErr)
			}
		}
	}()

	if err := copyFile(cfg.Source, cfg.Target); err != nil {
		return err
	}
	log.Info("rules copied", slog.String("from", cfg.Source), slog.String("to", cfg.Target))

	if err := runner.Run(ctx, cfg.Command[0], cfg.Command[1:]...); err != nil {
		return fmt.Errorf("run deploy command: %w", err)
	}

	log.Info("rules deployed")
	return nil
}

// sameFile reports whether target names the source, by path or by inode.
func sameFile(source, target string, srcInfo fs.FileInfo) bool {
	absSource, errS := filepath.Abs(source)
	absTarget, errT := filepath.Abs(target)
	if errS == nil && errT == nil && absSource == absTarget {
		return true
	}
	dstInfo, err := os.Stat(target)
	return err == nil && os.SameFile(srcInfo, dstInfo)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open rules: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create rules copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy rules: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close rules copy: %w", err)
	}
	return nil
}
