// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chainguard-dev/clog"

	"github.com/awsfinder/awsfinder/pkg/logging"
	h "github.com/awsfinder/awsfinder/pkg/test"
)

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx, err := logging.WithLogger(context.Background(), buf, "info")
	h.Ok(t, err)

	clog.DebugContext(ctx, "hidden")
	clog.InfoContext(ctx, "described images", "count", 3)

	out := buf.String()
	h.Assert(t, !strings.Contains(out, "hidden"), "debug lines should be filtered at info: %q", out)
	h.Assert(t, strings.Contains(out, "described images"), "info line missing: %q", out)
	h.Assert(t, strings.Contains(out, "awsfinder"), "prefix missing: %q", out)
}

func TestWithLogger_Debug(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx, err := logging.WithLogger(context.Background(), buf, "DEBUG")
	h.Ok(t, err)
	clog.FromContext(ctx).Debugf("filters %d", 2)
	h.Assert(t, strings.Contains(buf.String(), "filters 2"), "debug line missing: %q", buf.String())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud")
	h.Nok(t, err)
}
