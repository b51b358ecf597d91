// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package log contains logging utilities for tunneller.
//
// Operator-facing messages go through Logger. Troubleshooting detail, such as
// the literal command lines that are executed, goes through glog and is only
// shown once the verbosity has been raised with SetVerbosity.
package log

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

var Logger = NewLogger("")

func NewLogger(prefix string) *log.Logger {
	return NewLoggerTo(os.Stdout, prefix)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, prefix string) *log.Logger {
	return log.New(w, prefix, log.Lmicroseconds|log.Lmsgprefix)
}

type Writer struct {
	Logger *log.Logger
}

func NewWriter(logger *log.Logger) *Writer {
	return &Writer{
		Logger: logger,
	}
}

func (w *Writer) Write(p []byte) (n int, err error) {
	msg := strings.TrimSuffix(string(p), "\n")
	w.Logger.Println(msg)
	return len(p), nil
}

// SetVerbosity routes glog to stderr and sets its V level to verbosity.
func SetVerbosity(verbosity int) error {
	// glog registers its flags on the standard flag set and complains about
	// logging before flag.Parse otherwise.
	if !flag.CommandLine.Parsed() {
		if err := flag.CommandLine.Parse(nil); err != nil {
			return fmt.Errorf("failed to initialize glog flags: %w", err)
		}
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		return fmt.Errorf("failed to route glog to stderr: %w", err)
	}
	if err := flag.Set("v", strconv.Itoa(verbosity)); err != nil {
		return fmt.Errorf("failed to set glog verbosity to %d: %w", verbosity, err)
	}
	return nil
}

// Debugf logs at verbosity 1.
func Debugf(format string, args ...interface{}) {
	glog.V(1).Infof(format, args...)
}

// Tracef logs at verbosity 2.
func Tracef(format string, args ...interface{}) {
	glog.V(2).Infof(format, args...)
}
