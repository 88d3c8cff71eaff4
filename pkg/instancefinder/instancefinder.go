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

// Package instancefinder looks up EC2 instances by tag and state.
package instancefinder

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"

	"github.com/awsfinder/awsfinder/pkg/awsapi"
	"github.com/awsfinder/awsfinder/pkg/errs"
	"github.com/awsfinder/awsfinder/pkg/resources"
)

const instanceStateFilter = "instance-state-name"

// Finder queries EC2 instances
type Finder struct {
	EC2 ec2.DescribeInstancesAPIClient
}

// New creates a Finder for the given client
func New(client awsapi.FinderInterface) *Finder {
	return &Finder{EC2: client}
}

// FindByTag returns the running or pending instances tagged key=value.
// Both key and value are required.
func (f *Finder) FindByTag(ctx context.Context, tagKey string, tagValue string) ([]resources.Instance, error) {
	if tagKey == "" || tagValue == "" {
		return nil, errs.Errorf(errs.KindConfig, "find instances by tag", "tag key and tag value are both required (key=%q value=%q)", tagKey, tagValue)
	}
	filters := []ec2types.Filter{
		{Name: aws.String("tag:" + tagKey), Values: []string{tagValue}},
		stateFilter(resources.ActiveStates),
	}
	return f.describe(ctx, "find instances by tag", filters)
}

// FindByStates returns every instance in one of the given states
func (f *Finder) FindByStates(ctx context.Context, states []resources.InstanceState) ([]resources.Instance, error) {
	instances, err := f.describe(ctx, "find instances by state", []ec2types.Filter{stateFilter(states)})
	if err != nil {
		return nil, err
	}
	return lo.Filter(instances, func(instance resources.Instance, _ int) bool {
		return lo.Contains(states, instance.State)
	}), nil
}

func (f *Finder) describe(ctx context.Context, op string, filters []ec2types.Filter) ([]resources.Instance, error) {
	instances := []resources.Instance{}
	paginator := ec2.NewDescribeInstancesPaginator(f.EC2, &ec2.DescribeInstancesInput{Filters: filters})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errs.New(errs.KindRetrieval, op, err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, resources.InstanceFromEC2(instance))
			}
		}
	}
	clog.DebugContext(ctx, "described instances", "op", op, "filters", len(filters), "count", len(instances))
	return instances, nil
}

func stateFilter(states []resources.InstanceState) ec2types.Filter {
	return ec2types.Filter{
		Name: aws.String(instanceStateFilter),
		Values: lo.Map(states, func(state resources.InstanceState, _ int) string {
			return string(state)
		}),
	}
}

// IDs returns the instance ids in order
func IDs(instances []resources.Instance) []string {
	return lo.Map(instances, func(instance resources.Instance, _ int) string {
		return instance.InstanceID
	})
}

// PrivateIPs returns the private ip addresses in order, empty for instances without one
func PrivateIPs(instances []resources.Instance) []string {
	return lo.Map(instances, func(instance resources.Instance, _ int) string {
		return instance.PrivateIPAddress
	})
}
