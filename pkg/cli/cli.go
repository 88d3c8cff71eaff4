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

// Package cli provides functions to build the awsfinder command tree and its typed flags
package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

type validator = func(val interface{}) error

type runFunc = func(cmd *cobra.Command, args []string) error

// CommandLineInterface is a command in the awsfinder command tree along with the flags it registered
type CommandLineInterface struct {
	Command     *cobra.Command
	Flags       map[string]interface{}
	nilDefaults map[string]bool
	validators  map[string]validator
	parent      *CommandLineInterface
	parsed      map[string]interface{}
}

// New creates an instance of CommandLineInterface. A nil run creates a command which only groups subcommands.
func New(use string, shortUsage string, longUsage string, examples string, run runFunc) *CommandLineInterface {
	cmd := &cobra.Command{
		Use:           use,
		Short:         shortUsage,
		Long:          longUsage,
		Example:       examples,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return &CommandLineInterface{
		Command:     cmd,
		Flags:       map[string]interface{}{},
		nilDefaults: map[string]bool{},
		validators:  map[string]validator{},
	}
}

// AddCommand attaches child as a subcommand. Persistent flags of cl are visible to child.
func (cl *CommandLineInterface) AddCommand(child *CommandLineInterface) *CommandLineInterface {
	child.parent = cl
	cl.Command.AddCommand(child.Command)
	return child
}

// MarkFlagsMutuallyExclusive rejects invocations which set more than one of the named flags
func (cl *CommandLineInterface) MarkFlagsMutuallyExclusive(flagNames ...string) {
	cl.Command.MarkFlagsMutuallyExclusive(flagNames...)
}

// Execute parses args, runs the selected command and returns its error
func (cl *CommandLineInterface) Execute(ctx context.Context, args []string) error {
	cl.Command.SetArgs(args)
	return cl.Command.ExecuteContext(ctx)
}

// ParseFlags resolves the flag values of this command and its ancestors once cobra has parsed cmd.
// Flags registered without a default are nil unless explicitly set.
func (cl *CommandLineInterface) ParseFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := map[string]interface{}{}
	for c := cl; c != nil; c = c.parent {
		for name, val := range c.Flags {
			if _, ok := flags[name]; ok {
				// a subcommand flag shadows an ancestor flag of the same name
				continue
			}
			f := lookup(cmd, name)
			if f == nil {
				return nil, fmt.Errorf("flag --%s is not registered on %s", name, cmd.CommandPath())
			}
			if c.nilDefaults[name] && !f.Changed {
				val = nil
			}
			flags[name] = val
		}
	}
	cl.parsed = flags
	return flags, nil
}

func lookup(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(name)
}

// ValidateFlags iterates through registered flags of this command and its ancestors
// and runs their validators against the last parsed values. All failures are returned together.
func (cl *CommandLineInterface) ValidateFlags() error {
	value := func(c *CommandLineInterface, name string) interface{} {
		if cl.parsed != nil {
			return cl.parsed[name]
		}
		return c.Flags[name]
	}
	var err error
	for c := cl; c != nil; c = c.parent {
		names := make([]string, 0, len(c.validators))
		for name := range c.validators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fn := c.validators[name]
			if fn == nil {
				continue
			}
			err = multierr.Append(err, fn(value(c, name)))
		}
	}
	return err
}

// ParseAndValidateFlags resolves the flag values for cmd and validates them
func (cl *CommandLineInterface) ParseAndValidateFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags, err := cl.ParseFlags(cmd)
	if err != nil {
		return nil, err
	}
	if err := cl.ValidateFlags(); err != nil {
		return nil, err
	}
	return flags, nil
}

// Changed reports whether the named flag was set on the command line
func Changed(cmd *cobra.Command, name string) bool {
	f := lookup(cmd, name)
	return f != nil && f.Changed
}
