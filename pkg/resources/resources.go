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

// Package resources holds the EC2 image and instance records the finders return.
package resources

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	// NameTag is the tag key holding an image's logical name
	NameTag = "Name"
	// VersionTag is the tag key holding an image's release version
	VersionTag = "version"
)

// InstanceState is the lifecycle state of an instance
type InstanceState string

// Instance states as reported by EC2
const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
	StateTerminated   InstanceState = "terminated"
)

// ExistsStates are the states of an instance which still references its image
var ExistsStates = []InstanceState{StatePending, StateRunning, StateShuttingDown, StateStopping, StateStopped}

// ActiveStates are the states matched by a tag lookup
var ActiveStates = []InstanceState{StateRunning, StatePending}

// Tag is a single key/value label, kept in the order EC2 returned it
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Image is an AMI owned by the caller
type Image struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	State        string    `json:"state,omitempty" yaml:"state,omitempty"`
	CreationDate time.Time `json:"creation_date" yaml:"creation_date"`
	Tags         []Tag     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Version returns the value of the first version tag or an empty string
func (i Image) Version() string {
	for _, tag := range i.Tags {
		if tag.Key == VersionTag {
			return tag.Value
		}
	}
	return ""
}

// Instance is an EC2 instance
type Instance struct {
	InstanceID       string        `json:"instance_id" yaml:"instance_id"`
	PrivateIPAddress string        `json:"private_ip_address,omitempty" yaml:"private_ip_address,omitempty"`
	ImageID          string        `json:"image_id" yaml:"image_id"`
	State            InstanceState `json:"state" yaml:"state"`
	Tags             []Tag         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// TagMap returns the instance tags keyed by tag key
func (i Instance) TagMap() map[string]string {
	tags := make(map[string]string, len(i.Tags))
	for _, tag := range i.Tags {
		tags[tag.Key] = tag.Value
	}
	return tags
}

// Row is one line of an image listing. Every listing function produces Rows.
type Row struct {
	Name         string    `json:"name" yaml:"name"`
	Version      string    `json:"version" yaml:"version"`
	ID           string    `json:"id" yaml:"id"`
	CreationDate time.Time `json:"creation_date" yaml:"creation_date"`
}

// String renders the row as name:version:id
func (r Row) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Name, r.Version, r.ID)
}

// InUse pairs an image referenced by an instance with the value of one of that instance's tags
type InUse struct {
	Image    Image  `json:"image" yaml:"image"`
	TagValue string `json:"tag_value" yaml:"tag_value"`
	ImageID  string `json:"image_id" yaml:"image_id"`
}

// ImageFromEC2 converts an SDK image
func ImageFromEC2(image ec2types.Image) Image {
	return Image{
		ID:           aws.ToString(image.ImageId),
		Name:         aws.ToString(image.Name),
		State:        string(image.State),
		CreationDate: parseCreationDate(aws.ToString(image.CreationDate)),
		Tags:         tagsFromEC2(image.Tags),
	}
}

// InstanceFromEC2 converts an SDK instance
func InstanceFromEC2(instance ec2types.Instance) Instance {
	state := InstanceState("")
	if instance.State != nil {
		state = InstanceState(instance.State.Name)
	}
	return Instance{
		InstanceID:       aws.ToString(instance.InstanceId),
		PrivateIPAddress: aws.ToString(instance.PrivateIpAddress),
		ImageID:          aws.ToString(instance.ImageId),
		State:            state,
		Tags:             tagsFromEC2(instance.Tags),
	}
}

func tagsFromEC2(ec2Tags []ec2types.Tag) []Tag {
	tags := make([]Tag, 0, len(ec2Tags))
	for _, tag := range ec2Tags {
		tags = append(tags, Tag{Key: aws.ToString(tag.Key), Value: aws.ToString(tag.Value)})
	}
	return tags
}

// parseCreationDate reads the ISO 8601 creation date EC2 reports for images.
// An unparsable date yields the zero time, which sorts first.
func parseCreationDate(date string) time.Time {
	if date == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
