package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// DeregisterImageAPIClient is a client that implements the
// DeregisterImage operation.
type DeregisterImageAPIClient interface {
	DeregisterImage(ctx context.Context, params *ec2.DeregisterImageInput, optFns ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error)
}

type FinderInterface interface {
	ec2.DescribeInstancesAPIClient
	ec2.DescribeImagesAPIClient
	DeregisterImageAPIClient
}
