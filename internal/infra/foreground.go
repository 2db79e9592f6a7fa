package infra

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// CommandForegrounder brings the host to the foreground by launching the
// host command with the intent attached as flags:
//
//	<command> <args...> --action <action> --extra INTENT_BUNDLE_KEY=<payload>
//
// The host process is detached and never waited on.
type CommandForegrounder struct {
	command string
	args    []string
	start   func(cmd *exec.Cmd) error
}

// NewCommandForegrounder creates a foregrounder for the given host command.
func NewCommandForegrounder(command string, args ...string) *CommandForegrounder {
	return &CommandForegrounder{
		command: command,
		args:    args,
		start:   startDetached,
	}
}

// BringToForeground launches the host command.
func (f *CommandForegrounder) BringToForeground(ctx context.Context, intent domain.Intent) error {
	if f.command == "" {
		return errors.New("no host command configured")
	}
	cmd := exec.Command(f.command, f.buildArgs(intent)...)
	if err := f.start(cmd); err != nil {
		return fmt.Errorf("failed to launch host %s: %w", f.command, err)
	}
	return nil
}

func (f *CommandForegrounder) buildArgs(intent domain.Intent) []string {
	args := make([]string, 0, len(f.args)+4)
	args = append(args, f.args...)
	args = append(args, "--action", intent.Action)
	for k, v := range intent.Extras {
		args = append(args, "--extra", k+"="+v)
	}
	return args
}

// startDetached starts cmd in its own session with no stdio.
func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// MultiForegrounder delivers an intent to every foregrounder in order.
type MultiForegrounder []domain.Foregrounder

// BringToForeground returns the joined errors of all deliveries.
func (m MultiForegrounder) BringToForeground(ctx context.Context, intent domain.Intent) error {
	var errs []error
	for _, f := range m {
		if err := f.BringToForeground(ctx, intent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopForegrounder discards intents.
type NopForegrounder struct{}

// BringToForeground does nothing.
func (NopForegrounder) BringToForeground(context.Context, domain.Intent) error { return nil }

var (
	_ domain.Foregrounder = (*CommandForegrounder)(nil)
	_ domain.Foregrounder = MultiForegrounder(nil)
	_ domain.Foregrounder = NopForegrounder{}
)
