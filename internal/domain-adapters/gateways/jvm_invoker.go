package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

// JVMInvokerConfig contains configuration for starting the game JVM
type JVMInvokerConfig struct {
	Java       string
	JVMArgs    []string
	WorkingDir string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// JVMInvoker runs the entry point in a child JVM with inherited stdio
type JVMInvoker struct {
	config JVMInvokerConfig
	logger interfaces.Logger
}

// NewJVMInvoker creates a new invoker. Unset streams default to the
// process's own.
func NewJVMInvoker(config JVMInvokerConfig, logger interfaces.Logger) *JVMInvoker {
	if config.Java == "" {
		config.Java = "java"
	}
	if config.Stdin == nil {
		config.Stdin = os.Stdin
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &JVMInvoker{config: config, logger: logger}
}

// CommandLine returns the arguments passed to the java binary
func (j *JVMInvoker) CommandLine(entry entities.EntryPoint, classpath, args []string) []string {
	cmdArgs := make([]string, 0, len(j.config.JVMArgs)+3+len(args))
	cmdArgs = append(cmdArgs, j.config.JVMArgs...)
	cmdArgs = append(cmdArgs, "-cp", JoinClasspath(classpath), entry.Class)
	return append(cmdArgs, args...)
}

// Invoke starts the JVM and waits for it to exit
func (j *JVMInvoker) Invoke(ctx context.Context, entry entities.EntryPoint, classpath, args []string) error {
	if entry.Method != "" && entry.Method != entities.MainMethod {
		return &entities.EntryPointInvocationFailure{
			Entry:    entry,
			ExitCode: -1,
			Err:      fmt.Errorf("only %s can be launched in a JVM, got %s", entities.MainMethod, entry.Method),
		}
	}

	//nolint:gosec // G204: java binary and arguments come from the launch profile
	cmd := exec.CommandContext(ctx, j.config.Java, j.CommandLine(entry, classpath, args)...)
	cmd.Dir = j.config.WorkingDir
	cmd.Stdin = j.config.Stdin
	cmd.Stdout = j.config.Stdout
	cmd.Stderr = j.config.Stderr

	if err := cmd.Start(); err != nil {
		return &entities.EntryPointInvocationFailure{Entry: entry, ExitCode: -1, Err: err}
	}
	j.logger.Debug("Game JVM started", interfaces.F("pid", cmd.Process.Pid))

	if err := cmd.Wait(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &entities.EntryPointInvocationFailure{Entry: entry, Started: true, ExitCode: code, Err: err}
	}
	return nil
}
