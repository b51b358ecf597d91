// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main includes the main function for running tunneller as an
// executable.
package main

import (
	"context"
	"os"
	"os/signal"

	"chromiumos/platform/dev/contrib/tunneller/cmd"
	"chromiumos/platform/dev/contrib/tunneller/log"
)

// withInterrupt returns a context cancelled by the first SIGINT, which closes
// a live tunnel. After that the default handler is restored, so a second
// SIGINT terminates tunneller right away.
func withInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		defer signal.Stop(interrupts)
		select {
		case <-interrupts:
			log.Logger.Println("received SIGINT, closing ssh tunnel")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := withInterrupt(context.Background())
	err := cmd.Execute(ctx)
	cancel()
	if err != nil {
		log.NewLoggerTo(os.Stderr, "").Fatalf("tunneller: %v", err)
	}
}
