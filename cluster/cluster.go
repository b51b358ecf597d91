// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cluster describes the HPC clusters tunneller can reach and how to
// address their login nodes.
package cluster

import (
	"fmt"

	"go.chromium.org/luci/common/errors"
)

// NoLoginIndex selects the cluster's generic "login" alias instead of a
// numbered login node.
const NoLoginIndex = -1

var (
	// ConfigError tags errors caused by a missing, unreadable or malformed
	// cluster configuration, or by a lookup of a cluster it does not declare.
	ConfigError = errors.BoolTag{Key: errors.NewTagKey("cluster configuration error")}

	// UnknownClusterError tags a cluster name given on the command line that
	// the configuration does not declare.
	UnknownClusterError = errors.BoolTag{Key: errors.NewTagKey("unknown cluster")}
)

// Cluster holds the connection parameters of a single cluster.
type Cluster struct {
	// Name is the section name in the configuration and the --cluster value.
	Name string
	// URL is the domain the login node names are prefixed to.
	URL string
	// Suffix is appended to numbered login node names, e.g. "-ext".
	Suffix string
	// Hostname is what `hostname -d` prints on the cluster's own nodes.
	Hostname string
}

// LoginAddress returns the fully qualified hostname of the login node with
// the given index, e.g. "login02-ext.leonardo.cineca.it" for index 2.
//
// A negative index (see NoLoginIndex) resolves to the generic alias
// "login.<URL>". Configured values are concatenated verbatim.
func (c Cluster) LoginAddress(index int) string {
	login := "login"
	if index >= 0 {
		login = fmt.Sprintf("login%02d%s", index, c.Suffix)
	}
	return fmt.Sprintf("%s.%s", login, c.URL)
}
