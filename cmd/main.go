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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/awsfinder/awsfinder/pkg/awsapi"
	commandline "github.com/awsfinder/awsfinder/pkg/cli"
	"github.com/awsfinder/awsfinder/pkg/config"
	"github.com/awsfinder/awsfinder/pkg/logging"
	"github.com/awsfinder/awsfinder/pkg/outputs"
)

const (
	binName = "awsfinder"
)

// Configuration Flag Constants
const (
	region     = "region"
	profile    = "profile"
	configFile = "config"
	tagKeys    = "tag-keys"
	verbose    = "verbose"
	output     = "output"
)

var (
	// versionID is overridden at compilation with the version based on the git tag
	versionID = "dev"
)

// clientFunc builds the EC2 client for the configured region and profile
type clientFunc func(ctx context.Context, region string, profile string) (awsapi.FinderInterface, error)

// app carries the resolved configuration and the io every command writes to
type app struct {
	cfg       config.Config
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFunc
}

func defaultClient(ctx context.Context, region string, profile string) (awsapi.FinderInterface, error) {
	client, err := awsapi.NewClient(ctx, region, profile)
	if err != nil {
		return nil, err
	}
	return client.EC2, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{stdout: os.Stdout, stderr: os.Stderr, newClient: defaultClient}
	err := newRootCLI(a).Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCLI builds the full awsfinder command tree bound to a
func newRootCLI(a *app) *commandline.CommandLineInterface {
	shortUsage := "A tool to find AMIs and instances by tag:Name and tag:version"
	longUsage := binName + ` is a CLI tool to find the AMIs you own by their Name and version tags,
the instances which use them, and the version the next AMI release should carry.`
	examples := fmt.Sprintf(`%s ami ls --name web --only_latest 3 --output table
%s instance ls --tag_key role --tag_value web --ips
%s discover ami --name web --next_version minor`, binName, binName, binName)

	root := commandline.New(binName, shortUsage, longUsage, examples, nil)
	root.Command.Version = versionID

	// Configuration Flags - inherited by every subcommand

	root.ConfigStringFlag(region, root.StringMe("r"), nil, fmt.Sprintf("AWS Region to use for API requests (default %s)", awsapi.DefaultRegion), nil)
	root.ConfigStringFlag(profile, root.StringMe("p"), nil, "AWS CLI profile to use for credentials and config", nil)
	root.ConfigStringFlag(configFile, nil, root.StringMe(config.DefaultPath), "Path to the awsfinder config file", nil)
	root.ConfigStringSliceFlag(tagKeys, nil, nil, "Tag keys which mark an AMI as owned (default version)")
	root.ConfigBoolFlag(verbose, nil, nil, "Verbose - will print debug logs to stderr")
	root.ConfigStringOptionsFlag(output, root.StringMe("o"), nil, fmt.Sprintf("Specify the output format (%s)", strings.Join(outputs.Formats, ", ")), outputs.Formats)

	root.Command.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		flags, err := root.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		cfg, err := resolveConfig(root, cmd, flags)
		if err != nil {
			return err
		}
		ctx, err := logging.WithLogger(cmd.Context(), a.stderr, cfg.LogLevel)
		if err != nil {
			return err
		}
		a.cfg = cfg
		cmd.SetContext(ctx)
		return nil
	}

	root.AddCommand(newAMICLI(a))
	root.AddCommand(newInstanceCLI(a))
	root.AddCommand(newDiscoverCLI(a))
	return root
}

// resolveConfig layers the config file and environment, then the flags set on the command line, then defaults
func resolveConfig(root *commandline.CommandLineInterface, cmd *cobra.Command, flags map[string]interface{}) (config.Config, error) {
	cfg, err := config.Load(*root.StringMe(flags[configFile]), commandline.Changed(cmd, configFile))
	if err != nil {
		return cfg, err
	}
	overrides := config.Config{}
	if v := root.StringMe(flags[region]); v != nil {
		overrides.Region = *v
	}
	if v := root.StringMe(flags[profile]); v != nil {
		overrides.Profile = *v
	}
	if v := root.StringMe(flags[output]); v != nil {
		overrides.Output = *v
	}
	if v := root.StringSliceMe(flags[tagKeys]); v != nil {
		overrides.TagKeys = *v
	}
	if v := root.BoolMe(flags[verbose]); v != nil && *v {
		overrides.LogLevel = "debug"
	}
	cfg, err = config.Merge(cfg, overrides)
	if err != nil {
		return cfg, err
	}
	cfg, err = cfg.WithDefaults()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(outputs.Formats, logging.Levels); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// client builds the EC2 client from the resolved configuration
func (a *app) client(ctx context.Context) (awsapi.FinderInterface, error) {
	return a.newClient(ctx, a.cfg.Region, a.cfg.Profile)
}

// render writes result to stdout in the configured output format
func (a *app) render(result interface{}) error {
	return outputs.Render(a.stdout, outputs.Format(a.cfg.Output), result)
}
