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

	"github.com/spf13/cobra"

	"github.com/awsfinder/awsfinder/pkg/amifinder"
	commandline "github.com/awsfinder/awsfinder/pkg/cli"
	"github.com/awsfinder/awsfinder/pkg/version"
)

// Discover Flag Constants
const (
	latestVersion = "latest_version"
	nextVersion   = "next_version"
)

type discoverOptions struct {
	name   string
	latest bool
	bump   version.Bump
}

func newDiscoverCLI(a *app) *commandline.CommandLineInterface {
	discoverCLI := commandline.New("discover", "Discover submenu", "Discover the latest AMI release and the version of the next one", "", nil)

	var ami *commandline.CommandLineInterface
	ami = commandline.New("ami", "Discover AMI versions", "Print the newest AMI or the version the next AMI release should carry (default: next patch)", "", func(cmd *cobra.Command, args []string) error {
		flags, err := ami.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		opts := discoverOptions{
			name:   stringOrEmpty(ami, flags[name]),
			latest: *ami.BoolMe(flags[latestVersion]),
			bump:   version.Patch,
		}
		if next := ami.StringMe(flags[nextVersion]); next != nil {
			if opts.bump, err = version.ParseBump(*next); err != nil {
				return err
			}
		}
		result, err := a.discoverImage(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return a.render(result)
	})
	ami.StringFlag(name, ami.StringMe("n"), nil, "Filter AMI by tag Name", nil)
	ami.BoolFlag(latestVersion, ami.StringMe("l"), ami.BoolMe(false), "Discover the latest AMI")
	ami.StringOptionsFlag(nextVersion, ami.StringMe("x"), nil, "Displays the next version expected for the AMI release [major, minor, patch]", version.Bumps)
	ami.MarkFlagsMutuallyExclusive(latestVersion, nextVersion)
	discoverCLI.AddCommand(ami)

	return discoverCLI
}

func (a *app) discoverImage(ctx context.Context, opts discoverOptions) (interface{}, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	finder := amifinder.New(client, a.cfg.TagKeys)
	if opts.latest {
		return finder.Latest(ctx, opts.name)
	}
	return finder.NextVersion(ctx, opts.name, opts.bump)
}
