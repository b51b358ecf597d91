// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package port

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"

	"chromiumos/platform/dev/contrib/tunneller/cluster"
	"chromiumos/platform/dev/contrib/tunneller/ssh"
)

const domainCmd = "hostname -d"

var leonardoTarget = Target{
	User:    "alice",
	Address: "login01-ext.leonardo.cineca.it",
	Port:    9998,
	Cluster: cluster.Cluster{
		Name:     "leonardo",
		URL:      "leonardo.cineca.it",
		Suffix:   "-ext",
		Hostname: "leonardo.cineca.it",
	},
}

func domain(onCluster bool) *ssh.Result {
	if onCluster {
		return &ssh.Result{Stdout: "leonardo.cineca.it"}
	}
	return &ssh.Result{Stdout: "home.example.org"}
}

func TestListCommand(t *testing.T) {
	c := qt.New(t)
	c.Check(ListCommand(leonardoTarget, true), qt.Equals, "lsof -ti:9998")
	c.Check(ListCommand(leonardoTarget, false), qt.Equals, "ssh alice@login01-ext.leonardo.cineca.it lsof -ti:9998")
}

func TestCleanCommand(t *testing.T) {
	c := qt.New(t)
	c.Check(CleanCommand(leonardoTarget, true), qt.Equals, "lsof -ti:9998 | xargs kill -9")
	c.Check(CleanCommand(leonardoTarget, false), qt.Equals,
		"ssh alice@login01-ext.leonardo.cineca.it lsof -ti:9998 | xargs ssh alice@login01-ext.leonardo.cineca.it kill -9")
}

func TestCleanCommandRemoteStages(t *testing.T) {
	c := qt.New(t)
	remote := "ssh alice@login01-ext.leonardo.cineca.it "

	stages := strings.Split(CleanCommand(leonardoTarget, false), " | ")
	c.Assert(stages, qt.HasLen, 2)
	c.Check(strings.HasPrefix(stages[0], remote), qt.Equals, true)
	c.Check(strings.HasSuffix(stages[0], "lsof -ti:9998"), qt.Equals, true)
	c.Check(strings.HasPrefix(stages[1], "xargs "+remote), qt.Equals, true)
	c.Check(strings.HasSuffix(stages[1], "kill -9"), qt.Equals, true)
	for _, stage := range stages {
		c.Check(strings.Count(stage, remote), qt.Equals, 1, qt.Commentf("%q", stage))
	}

	local := CleanCommand(leonardoTarget, true)
	c.Check(strings.Contains(local, "ssh "), qt.Equals, false)
}

func TestList(t *testing.T) {
	for name, test := range map[string]struct {
		onCluster   bool
		wantCommand string
		stdout      string
		want        []string
		wantOut     string
	}{
		"remote": {
			wantCommand: "ssh alice@login01-ext.leonardo.cineca.it lsof -ti:9998",
			stdout:      "1234\n5678",
			want:        []string{"1234", "5678"},
			wantOut:     "at port 9998 found 1234\n5678\n",
		},
		"local": {
			onCluster:   true,
			wantCommand: "lsof -ti:9998",
			stdout:      "42",
			want:        []string{"42"},
			wantOut:     "at port 9998 found 42\n",
		},
		"nothing": {
			wantCommand: "ssh alice@login01-ext.leonardo.cineca.it lsof -ti:9998",
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			executor := ssh.NewMockExecutor(ctrl)
			gomock.InOrder(
				executor.EXPECT().Run(gomock.Any(), gomock.Eq(domainCmd)).Return(domain(test.onCluster), nil),
				executor.EXPECT().Run(gomock.Any(), gomock.Eq(test.wantCommand)).Return(&ssh.Result{Stdout: test.stdout, ExitCode: 1}, nil),
			)

			var out bytes.Buffer
			got, err := NewClient(executor, cluster.NewLocator(executor), &out).List(context.Background(), leonardoTarget)
			c.Assert(err, qt.IsNil)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
			c.Check(out.String(), qt.Equals, test.wantOut)
		})
	}
}

func TestClean(t *testing.T) {
	for name, test := range map[string]struct {
		onCluster   bool
		wantCommand string
		stdout      string
		wantOut     string
	}{
		"remote": {
			wantCommand: "ssh alice@login01-ext.leonardo.cineca.it lsof -ti:9998 | xargs ssh alice@login01-ext.leonardo.cineca.it kill -9",
		},
		"local": {
			onCluster:   true,
			wantCommand: "lsof -ti:9998 | xargs kill -9",
		},
		"confirmation": {
			onCluster:   true,
			wantCommand: "lsof -ti:9998 | xargs kill -9",
			stdout:      "killed 1234",
			wantOut:     "killed 1234\n",
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			executor := ssh.NewMockExecutor(ctrl)
			gomock.InOrder(
				executor.EXPECT().Run(gomock.Any(), gomock.Eq(domainCmd)).Return(domain(test.onCluster), nil),
				executor.EXPECT().Run(gomock.Any(), gomock.Eq(test.wantCommand)).Return(&ssh.Result{Stdout: test.stdout}, nil),
			)

			var out bytes.Buffer
			err := NewClient(executor, cluster.NewLocator(executor), &out).Clean(context.Background(), leonardoTarget)
			c.Assert(err, qt.IsNil)
			c.Check(out.String(), qt.Equals, test.wantOut)
		})
	}
}

func TestCleanNotRun(t *testing.T) {
	c := qt.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	executor := ssh.NewMockExecutor(ctrl)
	executor.EXPECT().Run(gomock.Any(), gomock.Eq(domainCmd)).Return(domain(true), nil)
	executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil, errors.New("exec: bash not found"))

	err := NewClient(executor, cluster.NewLocator(executor), &bytes.Buffer{}).Clean(context.Background(), leonardoTarget)
	c.Check(err, qt.ErrorMatches, "clean port 9998: exec: bash not found")
}
