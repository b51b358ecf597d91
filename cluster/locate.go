// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cluster

import (
	"context"

	clog "chromiumos/platform/dev/contrib/tunneller/log"
	"chromiumos/platform/dev/contrib/tunneller/ssh"
)

const domainCmd = "hostname -d"

// Locator tells whether tunneller runs on one of a cluster's own nodes.
type Locator struct {
	executor ssh.Executor
}

func NewLocator(executor ssh.Executor) *Locator {
	return &Locator{executor: executor}
}

// IsOnCluster reports whether the local network domain is exactly c.Hostname.
// A failed or empty lookup counts as not being on the cluster. Every call
// runs `hostname -d` again.
func (l *Locator) IsOnCluster(ctx context.Context, c Cluster) bool {
	result, err := l.executor.Run(ctx, domainCmd)
	if err != nil {
		clog.Debugf("cannot determine local domain, assuming not on %s: %v", c.Name, err)
		return false
	}
	clog.Debugf("local domain %q, %s domain %q", result.Stdout, c.Name, c.Hostname)
	return result.Stdout != "" && result.Stdout == c.Hostname
}
