package integration

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

const defaultShell = "/bin/sh"

// Shell runs Command through a shell. Exit status zero is success; anything
// else is reported as an *IntegrationError carrying the status.
type Shell struct {
	Command string
	// Shell defaults to /bin/sh.
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

func (s Shell) Integrate(ctx context.Context) error {
	sh := s.Shell
	if sh == "" {
		sh = defaultShell
	}
	cmd := exec.CommandContext(ctx, sh, "-c", s.Command)
	cmd.Stdout = s.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = s.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &IntegrationError{Command: s.Command, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &IntegrationError{Command: s.Command, ExitCode: -1, Err: err}
}
