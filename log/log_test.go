// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package log

import (
	"bytes"
	"flag"
	"log"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWriterSplitsLines(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	w := NewWriter(log.New(&buf, "SSH[1]: ", 0))

	n, err := w.Write([]byte("Warning: Permanently added host\n"))
	c.Assert(err, qt.IsNil)
	c.Check(n, qt.Equals, len("Warning: Permanently added host\n"))
	c.Check(buf.String(), qt.Equals, "SSH[1]: Warning: Permanently added host\n")
}

func TestSetVerbosity(t *testing.T) {
	c := qt.New(t)
	defer SetVerbosity(0)

	c.Assert(SetVerbosity(2), qt.IsNil)
	c.Check(flag.Lookup("v").Value.String(), qt.Equals, "2")
	c.Check(flag.Lookup("logtostderr").Value.String(), qt.Equals, "true")
}
