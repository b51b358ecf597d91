// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ssh

import (
	"context"
	"fmt"
	"strings"

	"go.chromium.org/luci/common/errors"

	clog "chromiumos/platform/dev/contrib/tunneller/log"
)

// Unreachable tags a failed reachability check of a host.
var Unreachable = errors.BoolTag{Key: errors.NewTagKey("host unreachable")}

func pingCommand(address string) string {
	return fmt.Sprintf("ping -c 2 -i 0.2 %s", address)
}

// Ping checks that address answers ICMP echo requests. Only ping's output is
// inspected: no replies or an unresolvable name make the host unreachable.
func Ping(ctx context.Context, e Executor, address string) error {
	result, err := e.Run(ctx, pingCommand(address))
	if err != nil {
		return errors.Annotate(err, "ping %s", address).Err()
	}
	if strings.Contains(result.Stdout, "0 received") || strings.Contains(result.Stderr, "Name or service not known") {
		return errors.Reason("cluster not found: %s", address).Tag(Unreachable).Err()
	}
	clog.Debugf("successfully pinged %s", address)
	return nil
}
