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

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	commandline "github.com/awsfinder/awsfinder/pkg/cli"
	"github.com/awsfinder/awsfinder/pkg/instancefinder"
)

// Instance Flag Constants
const (
	tagKey   = "tag_key"
	tagValue = "tag_value"
	ips      = "ips"
	reverse  = "reverse"
)

type instanceListOptions struct {
	tagKey   string
	tagValue string
	ips      bool
	reverse  bool
}

func newInstanceCLI(a *app) *commandline.CommandLineInterface {
	instanceCLI := commandline.New("instance", "Instance submenu", "List the running and pending instances by tag", "", nil)

	var ls *commandline.CommandLineInterface
	ls = commandline.New("ls", "List instances by tag", "List the running and pending instances carrying the tag key and value", "", func(cmd *cobra.Command, args []string) error {
		flags, err := ls.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		result, err := a.listInstances(cmd.Context(), instanceListOptions{
			tagKey:   stringOrEmpty(ls, flags[tagKey]),
			tagValue: stringOrEmpty(ls, flags[tagValue]),
			ips:      *ls.BoolMe(flags[ips]),
			reverse:  *ls.BoolMe(flags[reverse]),
		})
		if err != nil {
			return err
		}
		return a.render(result)
	})
	ls.StringFlag(tagKey, ls.StringMe("k"), nil, "Filter Instances by tag key", nil)
	ls.StringFlag(tagValue, ls.StringMe("v"), nil, "Filter Instances by tag value", nil)
	ls.BoolFlag(ips, ls.StringMe("i"), ls.BoolMe(false), "Get the instances private ip addresses")
	ls.BoolFlag(reverse, nil, ls.BoolMe(false), "Reverse the order of the ip addresses")
	instanceCLI.AddCommand(ls)

	return instanceCLI
}

func (a *app) listInstances(ctx context.Context, opts instanceListOptions) (interface{}, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	instances, err := instancefinder.New(client).FindByTag(ctx, opts.tagKey, opts.tagValue)
	if err != nil {
		return nil, err
	}
	if !opts.ips {
		return instances, nil
	}
	addresses := instancefinder.PrivateIPs(instances)
	if opts.reverse && len(addresses) > 1 {
		addresses = lo.Reverse(addresses)
	}
	return addresses, nil
}
