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

// Package amifinder lists, ranks and deregisters the AMIs owned by the caller.
package amifinder

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/awsfinder/awsfinder/pkg/awsapi"
	"github.com/awsfinder/awsfinder/pkg/errs"
	"github.com/awsfinder/awsfinder/pkg/instancefinder"
	"github.com/awsfinder/awsfinder/pkg/resources"
	"github.com/awsfinder/awsfinder/pkg/sorter"
	"github.com/awsfinder/awsfinder/pkg/version"
)

const (
	ownerSelf     = "self"
	tagKeyFilter  = "tag-key"
	imageIDFilter = "image-id"
)

// DefaultTagKeys are the tag keys which mark an image as owned
var DefaultTagKeys = []string{resources.VersionTag}

// Finder queries and deregisters the caller's AMIs
type Finder struct {
	EC2       awsapi.FinderInterface
	TagKeys   []string
	instances *instancefinder.Finder
	images    *cache.Cache
}

// New creates a Finder. An empty tagKeys uses DefaultTagKeys.
func New(client awsapi.FinderInterface, tagKeys []string) *Finder {
	if len(tagKeys) == 0 {
		tagKeys = DefaultTagKeys
	}
	return &Finder{
		EC2:       client,
		TagKeys:   tagKeys,
		instances: instancefinder.New(client),
		images:    cache.New(cache.NoExpiration, 0),
	}
}

// OwnedImages returns the caller's images carrying any of the configured tag keys
func (f *Finder) OwnedImages(ctx context.Context) ([]resources.Image, error) {
	return f.describe(ctx, "list owned images", &ec2.DescribeImagesInput{
		Owners:  []string{ownerSelf},
		Filters: []ec2types.Filter{{Name: aws.String(tagKeyFilter), Values: f.TagKeys}},
	})
}

// ByName returns the caller's images whose Name tag equals name.
// An empty name returns OwnedImages.
func (f *Finder) ByName(ctx context.Context, name string) ([]resources.Image, error) {
	if name == "" {
		return f.OwnedImages(ctx)
	}
	return f.describe(ctx, "list images by name", &ec2.DescribeImagesInput{
		Owners:  []string{ownerSelf},
		Filters: []ec2types.Filter{tagFilter(resources.NameTag, name)},
	})
}

// ByNameAndVersion returns the caller's images tagged with both name and version
func (f *Finder) ByNameAndVersion(ctx context.Context, name string, version string) ([]resources.Image, error) {
	return f.describe(ctx, "list images by name and version", &ec2.DescribeImagesInput{
		Owners: []string{ownerSelf},
		Filters: []ec2types.Filter{
			tagFilter(resources.NameTag, name),
			tagFilter(resources.VersionTag, version),
		},
	})
}

func (f *Finder) describe(ctx context.Context, op string, input *ec2.DescribeImagesInput) ([]resources.Image, error) {
	images := []resources.Image{}
	paginator := ec2.NewDescribeImagesPaginator(f.EC2, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errs.New(errs.KindRetrieval, op, err)
		}
		for _, image := range page.Images {
			img := resources.ImageFromEC2(image)
			f.images.Set(img.ID, img, cache.NoExpiration)
			images = append(images, img)
		}
	}
	clog.DebugContext(ctx, "described images", "op", op, "count", len(images))
	return images, nil
}

func tagFilter(key string, value string) ec2types.Filter {
	return ec2types.Filter{Name: aws.String("tag:" + key), Values: []string{value}}
}

// Rows projects images to one Row per non-empty version tag, in input order
func Rows(images []resources.Image) []resources.Row {
	rows := []resources.Row{}
	for _, image := range images {
		for _, tag := range image.Tags {
			if tag.Key != resources.VersionTag || tag.Value == "" {
				continue
			}
			rows = append(rows, resources.Row{
				Name:         image.Name,
				Version:      tag.Value,
				ID:           image.ID,
				CreationDate: image.CreationDate,
			})
		}
	}
	return rows
}

// SortedByDate returns the image rows ordered by name then creation date.
// reverse puts the newest first; rows that tie keep their input order.
func SortedByDate(images []resources.Image, reverse bool) ([]resources.Row, error) {
	direction := "asc"
	if reverse {
		direction = "desc"
	}
	rows, err := sorter.Sort(Rows(images), []string{sorter.NameField, sorter.CreationDateField}, direction)
	if err != nil {
		return nil, fmt.Errorf("sorting images: %w", err)
	}
	return rows, nil
}

// SortedByVersion returns the image rows for a version listing.
// Rows are ranked by name then creation date, the same as SortedByDate.
func SortedByVersion(images []resources.Image, reverse bool) ([]resources.Row, error) {
	return SortedByDate(images, reverse)
}

// IDs returns one image id per row, in order
func IDs(rows []resources.Row) []string {
	return lo.Map(rows, func(row resources.Row, _ int) string {
		return row.ID
	})
}

// KeepLast returns the first n rows. n is clamped to [0, len(rows)], so a negative n
// keeps nothing rather than slicing from the end.
func KeepLast(rows []resources.Row, n int) []resources.Row {
	return rows[:clamp(n, len(rows))]
}

// ExcludeLast drops the first n rows. n is clamped to [0, len(rows)], so a negative n
// drops nothing rather than slicing from the end.
func ExcludeLast(rows []resources.Row, n int) []resources.Row {
	return rows[clamp(n, len(rows)):]
}

// ExcludeLastPerName drops the first keep images of every name. rows must be grouped by
// name with the newest first, as SortedByDate(images, true) returns them. Rows sharing an
// image id count once.
func ExcludeLastPerName(rows []resources.Row, keep int) []resources.Row {
	seen := map[string]int{}
	return lo.Filter(lo.UniqBy(rows, func(row resources.Row) string {
		return row.ID
	}), func(row resources.Row, _ int) bool {
		seen[row.Name]++
		return seen[row.Name] > keep
	})
}

func clamp(n int, length int) int {
	return lo.Clamp(n, 0, length)
}

// ImagesInUse returns one entry per (instance, instance tag) for every instance which
// still references its image. Images are resolved in one batched lookup.
func (f *Finder) ImagesInUse(ctx context.Context) ([]resources.InUse, error) {
	instances, err := f.instances.FindByStates(ctx, resources.ExistsStates)
	if err != nil {
		return nil, err
	}
	imageIDs := imageIDsOf(instances)
	if err := f.resolveImages(ctx, imageIDs); err != nil {
		return nil, err
	}

	inUse := []resources.InUse{}
	for _, instance := range instances {
		image := resources.Image{ID: instance.ImageID}
		if cached, ok := f.images.Get(instance.ImageID); ok {
			image = cached.(resources.Image)
		}
		for _, tag := range instance.Tags {
			inUse = append(inUse, resources.InUse{Image: image, TagValue: tag.Value, ImageID: instance.ImageID})
		}
	}
	clog.DebugContext(ctx, "resolved images in use", "instances", len(instances), "images", len(imageIDs))
	return inUse, nil
}

// resolveImages loads the images not yet cached. Ids unknown to EC2 stay unresolved.
func (f *Finder) resolveImages(ctx context.Context, imageIDs []string) error {
	missing := lo.Filter(imageIDs, func(id string, _ int) bool {
		_, ok := f.images.Get(id)
		return id != "" && !ok
	})
	if len(missing) == 0 {
		return nil
	}
	_, err := f.describe(ctx, "resolve images in use", &ec2.DescribeImagesInput{
		Filters: []ec2types.Filter{{Name: aws.String(imageIDFilter), Values: missing}},
	})
	return err
}

// InUseImageIDs returns the unique ids of the images referenced by any instance which
// still exists, whether or not the instance carries tags
func (f *Finder) InUseImageIDs(ctx context.Context) ([]string, error) {
	instances, err := f.instances.FindByStates(ctx, resources.ExistsStates)
	if err != nil {
		return nil, err
	}
	imageIDs := imageIDsOf(instances)
	clog.DebugContext(ctx, "found images in use", "instances", len(instances), "images", len(imageIDs))
	return imageIDs, nil
}

func imageIDsOf(instances []resources.Instance) []string {
	return lo.Compact(lo.Uniq(lo.Map(instances, func(instance resources.Instance, _ int) string {
		return instance.ImageID
	})))
}

// ExcludeInUse returns the rows whose image is not referenced by any in use entry.
// Entries only exist for tagged instances; use ExcludeImageIDs with InUseImageIDs to
// account for every instance.
func ExcludeInUse(rows []resources.Row, inUse []resources.InUse) []resources.Row {
	return ExcludeImageIDs(rows, lo.Map(inUse, func(entry resources.InUse, _ int) string {
		return entry.ImageID
	}))
}

// ExcludeImageIDs returns the rows whose image id is not in imageIDs, in input order
func ExcludeImageIDs(rows []resources.Row, imageIDs []string) []resources.Row {
	used := lo.SliceToMap(imageIDs, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	return lo.Filter(rows, func(row resources.Row, _ int) bool {
		_, ok := used[row.ID]
		return !ok
	})
}

// DeleteByID deregisters one image. With dryRun, EC2 only checks permissions.
func (f *Finder) DeleteByID(ctx context.Context, imageID string, dryRun bool) error {
	_, err := f.EC2.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: aws.String(imageID),
		DryRun:  aws.Bool(dryRun),
	})
	if err != nil {
		if dryRun && errs.IsDryRun(err) {
			clog.InfoContext(ctx, "dry-run: would deregister image", "image_id", imageID)
			return nil
		}
		return errs.New(errs.KindDeregister, fmt.Sprintf("deregister %s", imageID), err)
	}
	f.images.Delete(imageID)
	clog.InfoContext(ctx, "deregistered image", "image_id", imageID)
	return nil
}

// DeleteByIDs deregisters every image and returns the combined failures
func (f *Finder) DeleteByIDs(ctx context.Context, imageIDs []string, dryRun bool) error {
	var err error
	for _, id := range imageIDs {
		err = multierr.Append(err, f.DeleteByID(ctx, id, dryRun))
	}
	return err
}

// DeleteOld deregisters, for every name matching name, the images beyond the newest keep,
// skipping images referenced by any existing instance. An empty name covers every owned image.
// It returns the ids it attempted.
func (f *Finder) DeleteOld(ctx context.Context, name string, keep int, dryRun bool) ([]string, error) {
	if keep < 0 {
		return nil, errs.Errorf(errs.KindConfig, "delete old images", "keep must not be negative: %d", keep)
	}
	images, err := f.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := SortedByDate(images, true)
	if err != nil {
		return nil, err
	}
	inUse, err := f.InUseImageIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids := IDs(ExcludeImageIDs(ExcludeLastPerName(rows, keep), inUse))
	clog.DebugContext(ctx, "pruning images", "name", name, "keep", keep, "candidates", len(ids), "dry_run", dryRun)
	return ids, f.DeleteByIDs(ctx, ids, dryRun)
}

// Latest returns the newest row of the images named name
func (f *Finder) Latest(ctx context.Context, name string) (resources.Row, error) {
	images, err := f.ByName(ctx, name)
	if err != nil {
		return resources.Row{}, err
	}
	rows, err := SortedByDate(images, true)
	if err != nil {
		return resources.Row{}, err
	}
	if len(rows) == 0 {
		return resources.Row{}, errs.Errorf(errs.KindNotFound, "latest image", "no versioned images found for name %q", name)
	}
	return rows[0], nil
}

// NextVersion returns the version following the newest image named name
func (f *Finder) NextVersion(ctx context.Context, name string, bump version.Bump) (string, error) {
	latest, err := f.Latest(ctx, name)
	if err != nil {
		return "", err
	}
	return version.Next(latest.Version, bump)
}
