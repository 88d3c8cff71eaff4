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

// Package errs provides the structured error values returned by the finders and the command layer.
package errs

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Kind classifies an Error
type Kind string

const (
	// KindConfig is a missing or invalid user supplied setting
	KindConfig Kind = "config"
	// KindSession is a failure to build the AWS configuration
	KindSession Kind = "session"
	// KindRetrieval is a failed describe/list call
	KindRetrieval Kind = "retrieval"
	// KindDeregister is a failed image deregistration
	KindDeregister Kind = "deregister"
	// KindVersion is a malformed version tag
	KindVersion Kind = "version"
	// KindNotFound means a query matched nothing where a result was required
	KindNotFound Kind = "not_found"
)

const dryRunCode = "DryRunOperation"

// Error carries the kind of failure, the operation that failed and the underlying cause
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New creates an Error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates an Error whose cause is built from the format string
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	if code := APICode(e.Err); code != "" {
		return fmt.Sprintf("%s: %s error (%s): %v", e.Op, e.Kind, code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether any error in err's chain is an *Error of the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// APICode returns the AWS API error code in err's chain or an empty string
func APICode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsDryRun reports whether err is the response EC2 sends for a successful dry-run request
func IsDryRun(err error) bool {
	return APICode(err) == dryRunCode
}
