// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package port lists and kills the processes holding a TCP port, either
// locally or on a cluster login node.
//
// Commands are run on the local machine when it is part of the target
// cluster, and through ssh on the login node otherwise. Exit statuses are not
// checked: no output means nothing was found.
package port

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.chromium.org/luci/common/errors"

	"chromiumos/platform/dev/contrib/tunneller/cluster"
	clog "chromiumos/platform/dev/contrib/tunneller/log"
	"chromiumos/platform/dev/contrib/tunneller/ssh"
)

// Target is the port and the login node it is looked up on.
type Target struct {
	User    string
	Address string
	Port    int
	Cluster cluster.Cluster
}

// Client runs port commands through an ssh.Executor.
type Client struct {
	executor ssh.Executor
	locator  *cluster.Locator
	out      io.Writer
}

// NewClient returns a Client. What List finds and what Clean confirms is
// written to out.
func NewClient(executor ssh.Executor, locator *cluster.Locator, out io.Writer) *Client {
	return &Client{
		executor: executor,
		locator:  locator,
		out:      out,
	}
}

func lsofCommand(port int) string {
	return fmt.Sprintf("lsof -ti:%d", port)
}

// ListCommand returns the command line printing the IDs of processes with
// open handles on the port.
func ListCommand(t Target, onCluster bool) string {
	cmd := lsofCommand(t.Port)
	if !onCluster {
		cmd = ssh.RemoteCommand(t.User, t.Address, cmd)
	}
	return cmd
}

// CleanCommand returns the command line killing every process with open
// handles on the port.
//
// Off the cluster, listing and killing are two separate ssh calls joined by a
// local pipe. Passing a pipe to xargs through a single remote shell is not
// reliable.
func CleanCommand(t Target, onCluster bool) string {
	if onCluster {
		return fmt.Sprintf("%s | xargs kill -9", lsofCommand(t.Port))
	}
	return fmt.Sprintf("%s | xargs %s",
		ssh.RemoteCommand(t.User, t.Address, lsofCommand(t.Port)),
		ssh.RemoteCommand(t.User, t.Address, "kill -9"))
}

// List returns the IDs of the processes with open handles on the port, and
// reports them when there are any.
func (c *Client) List(ctx context.Context, t Target) ([]string, error) {
	onCluster := c.locator.IsOnCluster(ctx, t.Cluster)
	result, err := c.executor.Run(ctx, ListCommand(t, onCluster))
	if err != nil {
		return nil, errors.Annotate(err, "list port %d", t.Port).Err()
	}
	if result.Stdout == "" {
		clog.Debugf("nothing found at port %d", t.Port)
		return nil, nil
	}
	fmt.Fprintf(c.out, "at port %d found %s\n", t.Port, result.Stdout)
	return strings.Fields(result.Stdout), nil
}

// Clean kills the processes with open handles on the port and echoes
// whatever the kill pipeline printed.
func (c *Client) Clean(ctx context.Context, t Target) error {
	onCluster := c.locator.IsOnCluster(ctx, t.Cluster)
	result, err := c.executor.Run(ctx, CleanCommand(t, onCluster))
	if err != nil {
		return errors.Annotate(err, "clean port %d", t.Port).Err()
	}
	if result.Stdout != "" {
		fmt.Fprintln(c.out, result.Stdout)
	}
	return nil
}
