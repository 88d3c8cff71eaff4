package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/awsfinder/awsfinder/pkg/amifinder"
	"github.com/awsfinder/awsfinder/pkg/awsapi"
	"github.com/awsfinder/awsfinder/pkg/outputs"
	"github.com/awsfinder/awsfinder/pkg/version"
)

func main() {
	// Initialize a context for the application
	ctx := context.Background()

	// Load an AWS config by looking at shared credentials or environment variables
	// https://aws.github.io/aws-sdk-go-v2/docs/configuring-sdk
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		fmt.Printf("Oh no, AWS credentials cannot be found: %v", err)
		return
	}

	// Instantiate a new AMI finder which matches the images you own carrying a version tag
	client := awsapi.NewClientFromConfig(cfg)
	finder := amifinder.New(client.EC2, amifinder.DefaultTagKeys)

	// Retrieve every image tagged Name=web
	images, err := finder.ByName(ctx, "web")
	if err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}

	// Order the images newest first and keep the three latest releases
	rows, err := amifinder.SortedByDate(images, true)
	if err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}
	if len(rows) == 0 {
		fmt.Println("No versioned images named web were found")
		return
	}
	if err := outputs.TableOutput(os.Stdout, amifinder.KeepLast(rows, 3)); err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}

	// Print the version the next minor release should carry
	next, err := version.Next(rows[0].Version, version.Minor)
	if err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}
	fmt.Println(next)
}
