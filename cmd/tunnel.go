// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.chromium.org/luci/common/errors"

	"chromiumos/platform/dev/contrib/tunneller/cluster"
	clog "chromiumos/platform/dev/contrib/tunneller/log"
	"chromiumos/platform/dev/contrib/tunneller/ssh"
)

// interruptGrace is how long an exited tunnel waits for the operator's SIGINT
// to cancel the context. The terminal delivers SIGINT to ssh and tunneller at
// once, and ssh may exit first.
const interruptGrace = 500 * time.Millisecond

const banner = `
   _                          _ _
  | |_ _   _ _ __  _ __   ___| | | ___ _ __
  | __| | | | '_ \| '_ \ / _ \ | |/ _ \ '__|
  | |_| |_| | | | | | | |  __/ | |  __/ |
   \__|\__,_|_| |_|_| |_|\___|_|_|\___|_|
`

// tunnelRequest is everything needed to open, or explain how to open, one
// tunnel.
type tunnelRequest struct {
	User    string
	Cluster cluster.Cluster
	// Address is the resolved login node hostname.
	Address string
	// Node is the compute node of a double hop, empty for a single hop.
	Node   string
	Port   int
	DryRun bool
}

// notebookCommand starts the service the tunnel is usually opened for.
func notebookCommand(port int) string {
	return fmt.Sprintf("jupyter notebook --port=%d --no-browser", port)
}

// writeGuidance prints the banner, where the tunnel goes and the remote step
// the operator has to run.
func writeGuidance(w io.Writer, req tunnelRequest) {
	fmt.Fprint(w, banner)
	if req.Node == "" {
		fmt.Fprintf(w, "Opening an ssh tunnel between your LOCAL machine and the LOGIN node (%s) on %s.\n", req.Address, req.Cluster.Name)
	} else {
		fmt.Fprintf(w, "Opening an ssh tunnel between your LOCAL machine and the COMPUTE node %q on %s.\n", req.Node, req.Cluster.Name)
	}
	if req.DryRun {
		fmt.Fprintln(w, "You are on the remote machine (or in dry-run mode).")
	} else {
		fmt.Fprintln(w, "You are on your local machine.")
	}
	fmt.Fprintf(w, "Using the username %q. This should be your username on the %s cluster.\n", req.User, req.Cluster.Name)

	fmt.Fprintf(w, `
Step 1. Launch jupyter notebook

On your REMOTE machine run the following command to start a jupyter notebook:
    %s

Once step 2 is done too, open the notebook URL in a browser on your local machine.

Step 2. Open the ssh tunnel
`, notebookCommand(req.Port))
}

// runTunnel prints the guidance for req and, unless in dry-run mode, opens
// the tunnel. A live tunnel only returns when the context is cancelled;
// every other return is a TunnelFailure.
func runTunnel(ctx context.Context, w io.Writer, executor ssh.Executor, req tunnelRequest) error {
	tunnel := ssh.TunnelCommand(req.User, req.Address, req.Port, req.Node)
	clog.Debugf("tunnel command: %s", tunnel)

	writeGuidance(w, req)
	if req.DryRun {
		fmt.Fprintf(w, `
You are on the remote machine (or in dry-run mode), run the following command on
your LOCAL machine to open the ssh tunnel:
    %s
`, tunnel)
		return nil
	}

	fmt.Fprintln(w, `
You are on your local machine, opening the ssh tunnel...
ATTENTION: the tunnel is working for as long as this command keeps running.`)
	err := executor.RunAttached(ctx, tunnel)
	if interrupted(ctx, interruptGrace) {
		clog.Logger.Printf("ssh tunnel to %s closed", req.Address)
		return nil
	}
	if err != nil {
		return errors.Annotate(err, "ssh tunnel not working").Tag(ssh.TunnelFailure).Err()
	}
	return errors.Reason("ssh tunnel not working: %q returned", tunnel).Tag(ssh.TunnelFailure).Err()
}

// interrupted reports whether ctx is done, or becomes done within grace.
func interrupted(ctx context.Context, grace time.Duration) bool {
	if ctx.Err() != nil {
		return true
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
