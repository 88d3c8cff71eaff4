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

package amifinder_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"go.uber.org/multierr"

	"github.com/awsfinder/awsfinder/pkg/amifinder"
	"github.com/awsfinder/awsfinder/pkg/awsapi"
	"github.com/awsfinder/awsfinder/pkg/errs"
	"github.com/awsfinder/awsfinder/pkg/resources"
	h "github.com/awsfinder/awsfinder/pkg/test"
	"github.com/awsfinder/awsfinder/pkg/version"
)

const (
	describeImages    = "DescribeImages"
	describeInstances = "DescribeInstances"
	mockFilesPath     = "../../test/static"
)

// Mocking helpers

type mockedEC2 struct {
	awsapi.FinderInterface
	DescribeImagesResp     ec2.DescribeImagesOutput
	DescribeImagesRespFn   func(input *ec2.DescribeImagesInput) *ec2.DescribeImagesOutput
	DescribeImagesErr      error
	DescribeImagesCalls    []*ec2.DescribeImagesInput
	DescribeInstancesResp  ec2.DescribeInstancesOutput
	DescribeInstancesErr   error
	DescribeInstancesCalls []*ec2.DescribeInstancesInput
	DeregisterImageErrs    map[string]error
	DeregisterImageCalls   []*ec2.DeregisterImageInput
}

func (m *mockedEC2) DescribeImages(_ context.Context, input *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	m.DescribeImagesCalls = append(m.DescribeImagesCalls, input)
	if m.DescribeImagesRespFn != nil {
		return m.DescribeImagesRespFn(input), m.DescribeImagesErr
	}
	return &m.DescribeImagesResp, m.DescribeImagesErr
}

func (m *mockedEC2) DescribeInstances(_ context.Context, input *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	m.DescribeInstancesCalls = append(m.DescribeInstancesCalls, input)
	return &m.DescribeInstancesResp, m.DescribeInstancesErr
}

func (m *mockedEC2) DeregisterImage(_ context.Context, input *ec2.DeregisterImageInput, _ ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error) {
	m.DeregisterImageCalls = append(m.DeregisterImageCalls, input)
	if err, ok := m.DeregisterImageErrs[aws.ToString(input.ImageId)]; ok {
		return nil, err
	}
	if aws.ToBool(input.DryRun) {
		return nil, &smithy.GenericAPIError{Code: "DryRunOperation", Message: "Request would have succeeded, but DryRun flag is set."}
	}
	return &ec2.DeregisterImageOutput{}, nil
}

func readMockFile(t *testing.T, api string, file string, out interface{}) {
	mockFilename := fmt.Sprintf("%s/%s/%s", mockFilesPath, api, file)
	mockFile, err := os.ReadFile(mockFilename)
	h.Assert(t, err == nil, "Error reading mock file "+mockFilename)
	err = json.Unmarshal(mockFile, out)
	h.Assert(t, err == nil, "Error parsing mock json file contents "+mockFilename)
}

func setupMock(t *testing.T, api string, file string) *mockedEC2 {
	m := &mockedEC2{}
	switch api {
	case describeImages:
		readMockFile(t, api, file, &m.DescribeImagesResp)
	case describeInstances:
		readMockFile(t, api, file, &m.DescribeInstancesResp)
	default:
		h.Assert(t, false, "Unable to mock the provided API type "+api)
	}
	return m
}

// setupInUseMock serves the owned images for owner scoped lookups and the in-use images for id lookups
func setupInUseMock(t *testing.T, instancesFile string) *mockedEC2 {
	owned := ec2.DescribeImagesOutput{}
	readMockFile(t, describeImages, "owned_images.json", &owned)
	inUse := ec2.DescribeImagesOutput{}
	readMockFile(t, describeImages, "in_use_images.json", &inUse)

	m := setupMock(t, describeInstances, instancesFile)
	m.DescribeImagesRespFn = func(input *ec2.DescribeImagesInput) *ec2.DescribeImagesOutput {
		if len(input.Owners) > 0 {
			return &owned
		}
		return &inUse
	}
	return m
}

func filterValues(filters []ec2types.Filter, name string) []string {
	for _, filter := range filters {
		if aws.ToString(filter.Name) == name {
			return filter.Values
		}
	}
	return nil
}

func date(month time.Month) time.Time {
	return time.Date(2024, month, 1, 10, 0, 0, 0, time.UTC)
}

// Tests

func TestOwnedImages(t *testing.T) {
	ec2Mock := setupMock(t, describeImages, "owned_images.json")
	finder := amifinder.New(ec2Mock, nil)

	images, err := finder.OwnedImages(context.Background())
	h.Ok(t, err)
	h.Equals(t, 4, len(images))

	input := ec2Mock.DescribeImagesCalls[0]
	h.Equals(t, []string{"self"}, input.Owners)
	h.Equals(t, []string{"version"}, filterValues(input.Filters, "tag-key"))
}

func TestOwnedImages_CustomTagKeys(t *testing.T) {
	ec2Mock := setupMock(t, describeImages, "empty.json")
	finder := amifinder.New(ec2Mock, []string{"version", "release"})

	images, err := finder.OwnedImages(context.Background())
	h.Ok(t, err)
	h.Equals(t, 0, len(images))
	h.Equals(t, []string{"version", "release"}, filterValues(ec2Mock.DescribeImagesCalls[0].Filters, "tag-key"))
}

func TestOwnedImages_Error(t *testing.T) {
	finder := amifinder.New(&mockedEC2{DescribeImagesErr: errors.New("access denied")}, nil)
	images, err := finder.OwnedImages(context.Background())
	h.Assert(t, errs.Is(err, errs.KindRetrieval), "expected a retrieval error, got %v", err)
	h.Assert(t, images == nil, "no images should be returned on error")
}

func TestByName(t *testing.T) {
	ec2Mock := setupMock(t, describeImages, "owned_images.json")
	finder := amifinder.New(ec2Mock, nil)

	_, err := finder.ByName(context.Background(), "web")
	h.Ok(t, err)
	input := ec2Mock.DescribeImagesCalls[0]
	h.Equals(t, []string{"self"}, input.Owners)
	h.Equals(t, []string{"web"}, filterValues(input.Filters, "tag:Name"))

	_, err = finder.ByName(context.Background(), "")
	h.Ok(t, err)
	h.Equals(t, []string{"version"}, filterValues(ec2Mock.DescribeImagesCalls[1].Filters, "tag-key"))
}

func TestByNameAndVersion(t *testing.T) {
	ec2Mock := setupMock(t, describeImages, "in_use_images.json")
	finder := amifinder.New(ec2Mock, nil)

	images, err := finder.ByNameAndVersion(context.Background(), "web", "1.1.0")
	h.Ok(t, err)
	h.Equals(t, 1, len(images))
	input := ec2Mock.DescribeImagesCalls[0]
	h.Equals(t, []string{"web"}, filterValues(input.Filters, "tag:Name"))
	h.Equals(t, []string{"1.1.0"}, filterValues(input.Filters, "tag:version"))
}

func TestSortedByDate(t *testing.T) {
	ec2Mock := setupMock(t, describeImages, "owned_images.json")
	images, err := amifinder.New(ec2Mock, nil).OwnedImages(context.Background())
	h.Ok(t, err)

	rows, err := amifinder.SortedByDate(images, true)
	h.Ok(t, err)
	// the image with an empty version tag has no row
	h.Equals(t, []string{"ami-00000000000000003", "ami-00000000000000002", "ami-00000000000000001"}, amifinder.IDs(rows))
	h.Equals(t, resources.Row{Name: "web", Version: "1.2.0", ID: "ami-00000000000000003", CreationDate: date(time.March)}, rows[0])

	ascending, err := amifinder.SortedByDate(images, false)
	h.Ok(t, err)
	h.Equals(t, []string{"ami-00000000000000001", "ami-00000000000000002", "ami-00000000000000003"}, amifinder.IDs(ascending))
}

func TestSortedByVersion_MatchesDateOrder(t *testing.T) {
	images := []resources.Image{
		{ID: "ami-b", Name: "web", CreationDate: date(time.February), Tags: []resources.Tag{{Key: "version", Value: "1.0.0"}}},
		{ID: "ami-a", Name: "web", CreationDate: date(time.January), Tags: []resources.Tag{{Key: "version", Value: "2.0.0"}}},
	}
	byVersion, err := amifinder.SortedByVersion(images, true)
	h.Ok(t, err)
	byDate, err := amifinder.SortedByDate(images, true)
	h.Ok(t, err)
	h.Equals(t, byDate, byVersion)
}

func TestRows_FanOut(t *testing.T) {
	images := []resources.Image{
		{ID: "ami-a", Name: "web", Tags: []resources.Tag{
			{Key: "version", Value: "1.0.0"},
			{Key: "Name", Value: "web"},
			{Key: "version", Value: "1.0.0-dup"},
		}},
		{ID: "ami-b", Name: "web"},
	}
	rows := amifinder.Rows(images)
	h.Equals(t, 2, len(rows))
	h.Equals(t, "1.0.0-dup", rows[1].Version)
}

func TestIDs(t *testing.T) {
	rows := []resources.Row{{Name: "web", Version: "1.0.0", ID: "ami-a"}, {Name: "web", Version: "1.0.1"}}
	h.Equals(t, []string{"ami-a", ""}, amifinder.IDs(rows))
	h.Equals(t, []string{}, amifinder.IDs(nil))
}

func TestKeepAndExcludeLast(t *testing.T) {
	rows := []resources.Row{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	h.Equals(t, []string{"a", "b"}, amifinder.IDs(amifinder.KeepLast(rows, 2)))
	h.Equals(t, []string{"c", "d", "e"}, amifinder.IDs(amifinder.ExcludeLast(rows, 2)))
	h.Equals(t, 5, len(amifinder.KeepLast(rows, 10)))
	h.Equals(t, 0, len(amifinder.ExcludeLast(rows, 10)))
	h.Equals(t, 0, len(amifinder.KeepLast(rows, -1)))

	for n := 0; n <= len(rows); n++ {
		for m := 0; n+m <= len(rows); m++ {
			h.Equals(t, amifinder.KeepLast(amifinder.ExcludeLast(rows, n), m), amifinder.ExcludeLast(amifinder.KeepLast(rows, n+m), n))
		}
	}
}

func TestImagesInUse(t *testing.T) {
	ec2Mock := setupInUseMock(t, "mixed_states.json")
	finder := amifinder.New(ec2Mock, nil)

	inUse, err := finder.ImagesInUse(context.Background())
	h.Ok(t, err)
	// stopped instance with two tags plus the running orphan, the terminated instance is dropped
	h.Equals(t, 3, len(inUse))
	h.Equals(t, "ami-00000000000000002", inUse[0].ImageID)
	h.Equals(t, "web", inUse[0].TagValue)
	h.Equals(t, "1.1.0", inUse[0].Image.Version())
	h.Equals(t, "staging", inUse[1].TagValue)
	h.Equals(t, resources.Image{ID: "ami-0000000000000dead"}, inUse[2].Image)
	for _, entry := range inUse {
		h.Assert(t, entry.ImageID != "ami-00000000000000001", "terminated instances must not contribute")
	}

	h.Equals(t, 1, len(ec2Mock.DescribeImagesCalls))
	h.Equals(t, []string{"ami-00000000000000002", "ami-0000000000000dead"}, filterValues(ec2Mock.DescribeImagesCalls[0].Filters, "image-id"))
}

func TestImagesInUse_UsesCache(t *testing.T) {
	ec2Mock := setupInUseMock(t, "mixed_states.json")
	finder := amifinder.New(ec2Mock, nil)

	_, err := finder.OwnedImages(context.Background())
	h.Ok(t, err)
	_, err = finder.ImagesInUse(context.Background())
	h.Ok(t, err)
	// ami-...2 was cached by the owned lookup, only the orphan is resolved
	h.Equals(t, 2, len(ec2Mock.DescribeImagesCalls))
	h.Equals(t, []string{"ami-0000000000000dead"}, filterValues(ec2Mock.DescribeImagesCalls[1].Filters, "image-id"))
}

func TestExcludeInUse(t *testing.T) {
	rows := []resources.Row{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	inUse := []resources.InUse{{ImageID: "B", TagValue: "web"}, {ImageID: "B", TagValue: "prod"}}
	h.Equals(t, []string{"A", "C"}, amifinder.IDs(amifinder.ExcludeInUse(rows, inUse)))
	h.Equals(t, rows, amifinder.ExcludeInUse(rows, nil))
}

func TestInUseImageIDs_UntaggedInstance(t *testing.T) {
	ec2Mock := setupInUseMock(t, "untagged_instance.json")
	finder := amifinder.New(ec2Mock, nil)

	inUse, err := finder.ImagesInUse(context.Background())
	h.Ok(t, err)
	h.Equals(t, 0, len(inUse))

	ids, err := finder.InUseImageIDs(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"ami-00000000000000003"}, ids)
}

func TestInUseImageIDs_SkipsTerminated(t *testing.T) {
	ec2Mock := setupInUseMock(t, "mixed_states.json")
	ids, err := amifinder.New(ec2Mock, nil).InUseImageIDs(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"ami-00000000000000002", "ami-0000000000000dead"}, ids)
	h.Equals(t, 0, len(ec2Mock.DescribeImagesCalls))
}

func TestExcludeImageIDs(t *testing.T) {
	rows := []resources.Row{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	h.Equals(t, []string{"A", "C"}, amifinder.IDs(amifinder.ExcludeImageIDs(rows, []string{"B", "D"})))
	h.Equals(t, rows, amifinder.ExcludeImageIDs(rows, nil))
}

func TestExcludeLastPerName(t *testing.T) {
	rows := []resources.Row{
		{Name: "web", Version: "2.1.0", ID: "w2"},
		{Name: "web", Version: "2.1.0-hotfix", ID: "w2"},
		{Name: "web", Version: "2.0.0", ID: "w1"},
		{Name: "api", Version: "1.1.0", ID: "a2"},
		{Name: "api", Version: "1.0.0", ID: "a1"},
	}
	h.Equals(t, []string{"w1", "a1"}, amifinder.IDs(amifinder.ExcludeLastPerName(rows, 1)))
	h.Equals(t, []string{"w2", "w1", "a2", "a1"}, amifinder.IDs(amifinder.ExcludeLastPerName(rows, 0)))
	h.Equals(t, 0, len(amifinder.ExcludeLastPerName(rows, 2)))
}

func TestKeepLastExcludeLast_NegativeIsClamped(t *testing.T) {
	rows := []resources.Row{{ID: "A"}, {ID: "B"}}
	h.Equals(t, 0, len(amifinder.KeepLast(rows, -1)))
	h.Equals(t, rows, amifinder.ExcludeLast(rows, -1))
}

func TestDeleteByID(t *testing.T) {
	ec2Mock := &mockedEC2{}
	finder := amifinder.New(ec2Mock, nil)

	h.Ok(t, finder.DeleteByID(context.Background(), "ami-1", false))
	h.Ok(t, finder.DeleteByID(context.Background(), "ami-1", true))
	h.Equals(t, 2, len(ec2Mock.DeregisterImageCalls))
	h.Equals(t, true, aws.ToBool(ec2Mock.DeregisterImageCalls[1].DryRun))
}

func TestDeleteByID_Error(t *testing.T) {
	ec2Mock := &mockedEC2{DeregisterImageErrs: map[string]error{
		"ami-missing": &smithy.GenericAPIError{Code: "InvalidAMIID.NotFound", Message: "The image id does not exist"},
	}}
	err := amifinder.New(ec2Mock, nil).DeleteByID(context.Background(), "ami-missing", true)
	h.Assert(t, errs.Is(err, errs.KindDeregister), "expected a deregister error, got %v", err)
	h.Equals(t, "InvalidAMIID.NotFound", errs.APICode(err))
}

func TestDeleteByIDs_CombinesErrors(t *testing.T) {
	ec2Mock := &mockedEC2{DeregisterImageErrs: map[string]error{
		"ami-a": errors.New("boom"),
		"ami-c": errors.New("bang"),
	}}
	err := amifinder.New(ec2Mock, nil).DeleteByIDs(context.Background(), []string{"ami-a", "ami-b", "ami-c"}, false)
	h.Equals(t, 2, len(multierr.Errors(err)))
	h.Equals(t, 3, len(ec2Mock.DeregisterImageCalls))
}

func TestDeleteOld(t *testing.T) {
	ec2Mock := setupInUseMock(t, "mixed_states.json")
	finder := amifinder.New(ec2Mock, nil)

	// newest first: ...3, ...2 (in use), ...1
	ids, err := finder.DeleteOld(context.Background(), "web", 1, true)
	h.Ok(t, err)
	h.Equals(t, []string{"ami-00000000000000001"}, ids)
	h.Equals(t, 1, len(ec2Mock.DeregisterImageCalls))
	h.Equals(t, true, aws.ToBool(ec2Mock.DeregisterImageCalls[0].DryRun))
}

func TestDeleteOld_NegativeKeep(t *testing.T) {
	ec2Mock := &mockedEC2{}
	_, err := amifinder.New(ec2Mock, nil).DeleteOld(context.Background(), "web", -1, true)
	h.Assert(t, errs.Is(err, errs.KindConfig), "expected a config error, got %v", err)
	h.Equals(t, 0, len(ec2Mock.DescribeImagesCalls))
}

func TestLatest(t *testing.T) {
	finder := amifinder.New(setupMock(t, describeImages, "owned_images.json"), nil)
	latest, err := finder.Latest(context.Background(), "web")
	h.Ok(t, err)
	h.Equals(t, "ami-00000000000000003", latest.ID)
	h.Equals(t, "1.2.0", latest.Version)
}

func TestLatest_NotFound(t *testing.T) {
	finder := amifinder.New(setupMock(t, describeImages, "empty.json"), nil)
	_, err := finder.Latest(context.Background(), "web")
	h.Assert(t, errs.Is(err, errs.KindNotFound), "expected a not found error, got %v", err)
}

func TestNextVersion(t *testing.T) {
	finder := amifinder.New(setupMock(t, describeImages, "owned_images.json"), nil)
	cases := map[version.Bump]string{
		version.Patch: "1.2.1",
		version.Minor: "1.3.0",
		version.Major: "2.0.0",
	}
	for bump, expected := range cases {
		next, err := finder.NextVersion(context.Background(), "web", bump)
		h.Ok(t, err)
		h.Equals(t, expected, next)
	}
}

func TestNextVersion_MalformedVersion(t *testing.T) {
	finder := amifinder.New(setupMock(t, describeImages, "malformed_version.json"), nil)
	_, err := finder.NextVersion(context.Background(), "api", version.Patch)
	h.Assert(t, errs.Is(err, errs.KindVersion), "expected a version error, got %v", err)
}

func TestDeleteOld_SkipsUntaggedInstanceImage(t *testing.T) {
	ec2Mock := setupInUseMock(t, "untagged_instance.json")
	finder := amifinder.New(ec2Mock, nil)

	// newest first: ...3 (in use by an untagged instance), ...2, ...1
	ids, err := finder.DeleteOld(context.Background(), "web", 0, false)
	h.Ok(t, err)
	h.Equals(t, []string{"ami-00000000000000002", "ami-00000000000000001"}, ids)
	for _, call := range ec2Mock.DeregisterImageCalls {
		h.Assert(t, aws.ToString(call.ImageId) != "ami-00000000000000003", "an image used by a running instance must not be deregistered")
	}
}

func TestDeleteOld_KeepsNewestOfEveryName(t *testing.T) {
	ec2Mock := setupMock(t, describeInstances, "none.json")
	readMockFile(t, describeImages, "multi_name_images.json", &ec2Mock.DescribeImagesResp)
	finder := amifinder.New(ec2Mock, nil)

	ids, err := finder.DeleteOld(context.Background(), "", 1, true)
	h.Ok(t, err)
	h.Equals(t, []string{"ami-0000000000000b001", "ami-0000000000000a001"}, ids)

	// the web image with two version tags takes one keep slot
	ids, err = finder.DeleteOld(context.Background(), "", 2, true)
	h.Ok(t, err)
	h.Equals(t, []string{}, ids)
}
