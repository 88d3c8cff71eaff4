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

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/awsfinder/awsfinder/pkg/amifinder"
	commandline "github.com/awsfinder/awsfinder/pkg/cli"
	"github.com/awsfinder/awsfinder/pkg/errs"
)

// AMI Flag Constants
const (
	name          = "name"
	excludeLatest = "exclude_latest"
	onlyLatest    = "only_latest"
	ids           = "ids"
	excludeInUse  = "exclude_inuse"
	dryRun        = "dry-run"
	keep          = "keep"
)

const defaultKeep = 3

type amiListOptions struct {
	name          string
	excludeLatest int
	onlyLatest    int
	ids           bool
	excludeInUse  bool
}

type amiPruneOptions struct {
	name   string
	keep   int
	dryRun bool
}

// deregisterResult reports the images a prune deregistered, or would have with a dry-run
type deregisterResult struct {
	DryRun  bool     `json:"dry_run" yaml:"dry_run"`
	Removed []string `json:"removed" yaml:"removed"`
}

func newAMICLI(a *app) *commandline.CommandLineInterface {
	amiCLI := commandline.New("ami", "AMI submenu", "List, remove and prune the AMIs you own", "", nil)

	var ls *commandline.CommandLineInterface
	ls = commandline.New("ls", "List owned AMIs", "List the owned AMIs as name, version and id, newest first within each name", "", func(cmd *cobra.Command, args []string) error {
		flags, err := ls.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		result, err := a.listImages(cmd.Context(), amiListOptions{
			name:          stringOrEmpty(ls, flags[name]),
			excludeLatest: *ls.IntMe(flags[excludeLatest]),
			onlyLatest:    *ls.IntMe(flags[onlyLatest]),
			ids:           *ls.BoolMe(flags[ids]),
			excludeInUse:  *ls.BoolMe(flags[excludeInUse]),
		})
		if err != nil {
			return err
		}
		return a.render(result)
	})
	ls.StringFlag(name, ls.StringMe("n"), nil, "Filter AMI by tag Name", nil)
	ls.NaturalIntFlag(excludeLatest, ls.StringMe("x"), ls.IntMe(0), "Exclude the latest N AMIs of each listing")
	ls.NaturalIntFlag(onlyLatest, ls.StringMe("l"), ls.IntMe(0), "Return only the latest N AMIs")
	ls.BoolFlag(ids, nil, ls.BoolMe(false), "Print only the AMI ids")
	ls.BoolFlag(excludeInUse, nil, ls.BoolMe(false), "Exclude the AMIs in use by any instance")
	amiCLI.AddCommand(ls)

	var rm *commandline.CommandLineInterface
	rm = commandline.New("rm ID...", "Deregister AMIs", "Deregister every AMI id given", "", func(cmd *cobra.Command, args []string) error {
		flags, err := rm.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		result, err := a.removeImages(cmd.Context(), args, *rm.BoolMe(flags[dryRun]))
		if err != nil {
			return err
		}
		return a.render(result)
	})
	rm.Command.Args = cobra.MinimumNArgs(1)
	rm.BoolFlag(dryRun, nil, rm.BoolMe(false), "Only check the permissions to deregister")
	amiCLI.AddCommand(rm)

	var prune *commandline.CommandLineInterface
	prune = commandline.New("prune", "Deregister old AMIs", "Deregister the AMIs beyond the newest --keep of each name, skipping AMIs used by any instance which still exists", "", func(cmd *cobra.Command, args []string) error {
		flags, err := prune.ParseAndValidateFlags(cmd)
		if err != nil {
			return err
		}
		result, err := a.pruneImages(cmd.Context(), amiPruneOptions{
			name:   stringOrEmpty(prune, flags[name]),
			keep:   *prune.IntMe(flags[keep]),
			dryRun: *prune.BoolMe(flags[dryRun]),
		})
		if err != nil {
			return err
		}
		return a.render(result)
	})
	prune.StringFlag(name, prune.StringMe("n"), nil, "Only prune the AMIs with this tag Name", nil)
	prune.NaturalIntFlag(keep, nil, prune.IntMe(defaultKeep), "Number of newest AMIs to keep")
	prune.BoolFlag(dryRun, nil, prune.BoolMe(true), "Only check the permissions to deregister (set --dry-run=false to deregister)")
	amiCLI.AddCommand(prune)

	return amiCLI
}

func stringOrEmpty(cl *commandline.CommandLineInterface, val interface{}) string {
	if s := cl.StringMe(val); s != nil {
		return *s
	}
	return ""
}

func (a *app) listImages(ctx context.Context, opts amiListOptions) (interface{}, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	finder := amifinder.New(client, a.cfg.TagKeys)
	images, err := finder.ByName(ctx, opts.name)
	if err != nil {
		return nil, err
	}
	rows, err := amifinder.SortedByVersion(images, true)
	if err != nil {
		return nil, err
	}
	if opts.excludeLatest > 0 {
		rows = amifinder.ExcludeLast(rows, opts.excludeLatest)
	}
	if opts.onlyLatest > 0 {
		rows = amifinder.KeepLast(rows, opts.onlyLatest)
	}
	if opts.excludeInUse {
		inUse, err := finder.InUseImageIDs(ctx)
		if err != nil {
			return nil, err
		}
		rows = amifinder.ExcludeImageIDs(rows, inUse)
	}
	clog.DebugContext(ctx, "listed images", "name", opts.name, "rows", len(rows))
	if opts.ids {
		return amifinder.IDs(rows), nil
	}
	return rows, nil
}

func (a *app) removeImages(ctx context.Context, imageIDs []string, dryRun bool) (deregisterResult, error) {
	client, err := a.client(ctx)
	if err != nil {
		return deregisterResult{}, err
	}
	finder := amifinder.New(client, a.cfg.TagKeys)
	if err := finder.DeleteByIDs(ctx, imageIDs, dryRun); err != nil {
		return deregisterResult{}, err
	}
	return deregisterResult{DryRun: dryRun, Removed: imageIDs}, nil
}

func (a *app) pruneImages(ctx context.Context, opts amiPruneOptions) (deregisterResult, error) {
	client, err := a.client(ctx)
	if err != nil {
		return deregisterResult{}, err
	}
	finder := amifinder.New(client, a.cfg.TagKeys)
	removed, err := finder.DeleteOld(ctx, opts.name, opts.keep, opts.dryRun)
	if err != nil {
		if errs.Is(err, errs.KindDeregister) {
			clog.FromContext(ctx).Warnf("some images could not be deregistered: %v", err)
		}
		return deregisterResult{}, err
	}
	return deregisterResult{DryRun: opts.dryRun, Removed: removed}, nil
}

// Words lists the deregistered ids for text output
func (r deregisterResult) Words() []string {
	return r.Removed
}
