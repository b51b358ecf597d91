// Copyright 2023 The ChromiumOS Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cmd configures the tunneller CLI.
//
// The tunneller CLI relies on the Cobra framework. See the Cobra documentation
// for more details on how to configure a Cobra CLI.
//
// The root.go file configures the tunneller command and dispatches to the
// tunnel or port actions. The tunnel.go file prints the tunnel instructions
// and runs the tunnel.
package cmd
