package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/chainguard-dev/clog"

	"github.com/awsfinder/awsfinder/pkg/errs"
)

// DefaultRegion is used when no region is configured
const DefaultRegion = "us-east-1"

// Client holds the EC2 API client for one region
type Client struct {
	EC2    FinderInterface
	Region string
}

// NewClient loads the default AWS credential chain for the region and optional named profile
func NewClient(ctx context.Context, region string, profile string) (*Client, error) {
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.New(errs.KindSession, "load aws config", err)
	}
	clog.FromContext(ctx).Debug("loaded aws config", "region", region, "profile", profile)
	return NewClientFromConfig(cfg), nil
}

// NewClientFromConfig builds a Client from an already loaded aws.Config
func NewClientFromConfig(cfg aws.Config) *Client {
	return &Client{
		EC2:    ec2.NewFromConfig(cfg),
		Region: cfg.Region,
	}
}
