// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ssh builds ssh command lines for tunnels and remote commands and
// runs them through the local shell.
//
// Values are interpolated into command lines as given; they are expected to
// come from the operator running the tool.
package ssh

import (
	"fmt"

	"go.chromium.org/luci/common/errors"
)

const sshCmd = "ssh"

// TunnelFailure tags the return of a live tunnel, which only stops on its
// own when something went wrong.
var TunnelFailure = errors.BoolTag{Key: errors.NewTagKey("ssh tunnel failure")}

// forward returns the local forwarding flag mapping port to the same port on
// the far end.
func forward(port int) string {
	return fmt.Sprintf("-L %d:localhost:%d", port, port)
}

// TunnelCommand returns the command line forwarding local port to port on
// the login node address. When node is set, a second ssh started on the
// login node forwards the port on to the compute node.
//
// The output is, with node set:
//
//	ssh -L 9998:localhost:9998 user@login02-ext.leonardo.cineca.it  ssh -L 9998:localhost:9998 lrdn2655 -N
//
// The double and trailing spaces are kept for compatibility with the command
// lines operators are used to copy.
func TunnelCommand(user, address string, port int, node string) string {
	tunnel := fmt.Sprintf("%s %s %s@%s ", sshCmd, forward(port), user, address)
	if node != "" {
		tunnel = fmt.Sprintf("%s %s %s %s", tunnel, sshCmd, forward(port), node)
	}
	return tunnel + " -N "
}

// RemoteCommand returns the command line running command as user on address.
func RemoteCommand(user, address, command string) string {
	return fmt.Sprintf("%s %s@%s %s", sshCmd, user, address, command)
}
