package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// StartDaemon spawns `appblock run` as a detached background process.
// The child writes its own log file; stdio is closed.
func StartDaemon(configPath string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, err
	}

	args := []string{"run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(executable, args...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	return pid, cmd.Process.Release()
}
