// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	clog "chromiumos/platform/dev/contrib/tunneller/log"
)

const (
	shellCmd  = "bash"
	waitDelay = 2 * time.Second
)

// Result is the captured output of a finished command line.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs shell command lines.
//
// A command that exits with a non-zero status is not an error; callers look
// at the captured output to decide whether there is something to report.
// Errors are reserved for commands that could not be run at all.
type Executor interface {
	// Run runs commandLine to completion and captures its output.
	Run(ctx context.Context, commandLine string) (*Result, error)
	// RunAttached runs commandLine with its output streamed to the log and
	// blocks until it exits or ctx is cancelled.
	RunAttached(ctx context.Context, commandLine string) error
}

// Runner is the Executor backed by the local shell.
type Runner struct {
	nextCmdId int
}

var _ Executor = (*Runner)(nil)

func NewRunner() *Runner {
	return &Runner{
		nextCmdId: 1,
	}
}

func (r *Runner) buildCmd(ctx context.Context, commandLine string) *exec.Cmd {
	return exec.CommandContext(ctx, shellCmd, "-c", commandLine)
}

func (r *Runner) Run(ctx context.Context, commandLine string) (*Result, error) {
	cmd := r.buildCmd(ctx, commandLine)
	clog.Debugf("RUN: %s", commandLine)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	result := &Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return nil, fmt.Errorf("failed to run %q: %w", commandLine, runErr)
	}
	clog.Tracef("exit %d, stdout %q, stderr %q", result.ExitCode, result.Stdout, result.Stderr)
	return result, nil
}

func (r *Runner) RunAttached(ctx context.Context, commandLine string) error {
	cmd := r.buildCmd(ctx, commandLine)

	// Stream command output to the log with a unique prefix.
	logPrefix := fmt.Sprintf("SSH[%d]: ", r.nextCmdId)
	r.nextCmdId++
	cmdLogger := clog.NewLogger(logPrefix)
	logWriter := clog.NewWriter(cmdLogger)
	cmd.Stdin = os.Stdin
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter
	// Children left behind by the shell may hold the output pipes open.
	cmd.WaitDelay = waitDelay
	cmdLogger.Printf("RUN: %s", commandLine)

	// Wait for run to complete or context is cancelled.
	runChan := make(chan error, 1)
	go func() {
		runChan <- cmd.Run()
	}()
	select {
	case <-ctx.Done():
		// CommandContext kills the process, wait for it to be reaped.
		<-runChan
		return ctx.Err()
	case err := <-runChan:
		if err != nil {
			return fmt.Errorf("%q exited: %w", commandLine, err)
		}
		return nil
	}
}
