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

// Package logging builds the command logger and carries it on the context.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/log"
)

const prefix = "awsfinder"

// Levels lists the accepted log level names
var Levels = []string{"debug", "info", "warn", "error"}

// New returns a logger writing human readable lines to w at the named level
func New(w io.Writer, level string) (*clog.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           lvl,
		ReportTimestamp: false,
	})
	return clog.New(handler), nil
}

// WithLogger attaches a logger writing to w at the named level to ctx
func WithLogger(ctx context.Context, w io.Writer, level string) (context.Context, error) {
	logger, err := New(w, level)
	if err != nil {
		return ctx, err
	}
	return clog.WithLogger(ctx, logger), nil
}
