// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmd

import (
	"context"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"go.chromium.org/luci/common/errors"

	"chromiumos/platform/dev/contrib/tunneller/cluster"
	clog "chromiumos/platform/dev/contrib/tunneller/log"
	"chromiumos/platform/dev/contrib/tunneller/port"
	"chromiumos/platform/dev/contrib/tunneller/ssh"
)

const (
	configEnvVar = "TUNNELLER_CONFIG"
	defaultLogin = 1
	defaultPort  = 9999
)

// options holds the parsed command line of a single invocation.
type options struct {
	config    string
	user      string
	cluster   string
	login     int
	node      string
	port      int
	portList  bool
	portClean bool
	dryRun    bool
	ping      bool
	verbose   int
}

// NewRootCommand returns the tunneller command. All external programs are
// run through executor.
func NewRootCommand(executor ssh.Executor) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:     "tunneller",
		Version: tunnellerVersion,
		Short:   "Open ssh tunnels to the login and compute nodes of HPC clusters.",
		Long: `
Open ssh tunnels to the login and compute nodes of HPC clusters.

Open a tunnel to the first login node of leonardo on the default port 9999:
$ tunneller -u USER -c leonardo

which runs:
  ssh -L 9999:localhost:9999 USER@login01-ext.leonardo.cineca.it -N

Open a double tunnel to the compute node lrdn2655 on port 9998, going through
the second login node:
$ tunneller -u USER -c leonardo -l 2 -p 9998 -n lrdn2655

which runs:
  ssh -L 9998:localhost:9998 USER@login02-ext.leonardo.cineca.it ssh -L 9998:localhost:9998 lrdn2655 -N

Kill all processes holding port 9998 on the second login node of leonardo:
$ tunneller -u USER -c leonardo -l 2 -p 9998 --port-clean

When tunneller runs on a node of the target cluster, or with --dry-run, it only
prints the commands to run instead of opening the tunnel. A live tunnel runs
until interrupted with CTRL+C.

Clusters are read from the bundled cluster.ini unless --config or the
TUNNELLER_CONFIG environment variable names another file.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, executor, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.config, "config", "", "cluster configuration file (default bundled cluster.ini, or $"+configEnvVar+")")
	flags.StringVarP(&opts.user, "user", "u", currentUser(), "user name on the cluster")
	flags.StringVarP(&opts.cluster, "cluster", "c", "", "cluster to use (default first cluster in the configuration)")
	flags.IntVarP(&opts.login, "login", "l", defaultLogin, "login node ID to use, negative for the generic login alias")
	flags.StringVarP(&opts.node, "node", "n", "", "compute node to tunnel to through the login node")
	flags.IntVarP(&opts.port, "port", "p", defaultPort, "port to use for the ssh tunnel")
	flags.BoolVar(&opts.portList, "port-list", false, "list the IDs of the processes with network connections on the port, to check if it is already in use")
	flags.BoolVar(&opts.portClean, "port-clean", false, "kill all processes with network connections on the port")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "only print the commands, do not open the ssh tunnel")
	flags.BoolVar(&opts.ping, "ping", false, "check that the login node answers to ping before opening the tunnel")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity level")

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCommand(ssh.NewRunner()).ExecuteContext(ctx)
}

func currentUser() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// loadRegistry loads the cluster configuration named by path, by
// $TUNNELLER_CONFIG, or the bundled one, in that order.
func loadRegistry(path string) (*cluster.Registry, error) {
	if path == "" {
		path = os.Getenv(configEnvVar)
	}
	if path == "" {
		return cluster.Default()
	}
	clog.Debugf("loading clusters from %s", path)
	return cluster.LoadFile(path)
}

// selectCluster returns the cluster named on the command line, or the
// default one.
func selectCluster(registry *cluster.Registry, name string) (cluster.Cluster, error) {
	if name == "" {
		return registry.Default(), nil
	}
	if err := registry.Validate(name); err != nil {
		return cluster.Cluster{}, err
	}
	return registry.Get(name)
}

func run(cmd *cobra.Command, executor ssh.Executor, opts *options) error {
	if err := clog.SetVerbosity(opts.verbose); err != nil {
		return err
	}
	ctx := cmd.Context()

	registry, err := loadRegistry(opts.config)
	if err != nil {
		return err
	}
	clog.Debugf("cluster list: %v", registry.Names())
	c, err := selectCluster(registry, opts.cluster)
	if err != nil {
		return err
	}
	clog.Debugf("select cluster: %s", c.Name)

	login := opts.login
	if login < 0 {
		login = cluster.NoLoginIndex
	}
	address := c.LoginAddress(login)
	clog.Debugf("login address: %s", address)

	locator := cluster.NewLocator(executor)
	target := port.Target{
		User:    opts.user,
		Address: address,
		Port:    opts.port,
		Cluster: c,
	}
	if opts.portList {
		_, err := port.NewClient(executor, locator, cmd.OutOrStdout()).List(ctx, target)
		return err
	}
	if opts.portClean {
		return port.NewClient(executor, locator, cmd.OutOrStdout()).Clean(ctx, target)
	}

	dryRun := opts.dryRun
	if !dryRun {
		dryRun = locator.IsOnCluster(ctx, c)
		if dryRun {
			clog.Debugf("enabling dry-run mode on %s", c.Name)
		}
	}
	if opts.ping && !dryRun {
		if err := ssh.Ping(ctx, executor, address); err != nil {
			return errors.Annotate(err, "login node %s", address).Err()
		}
	}

	return runTunnel(ctx, cmd.OutOrStdout(), executor, tunnelRequest{
		User:    opts.user,
		Cluster: c,
		Address: address,
		Node:    opts.node,
		Port:    opts.port,
		DryRun:  dryRun,
	})
}
