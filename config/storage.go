package config

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// imagePrefix is the key prefix every stored recipe image lives under.
const imagePrefix = "recipes/"

// S3Config holds S3 client and bucket info
type S3Config struct {
	Client     *s3.Client
	BucketName string
	Region     string
}

// NewS3Config initializes the S3 client for the recipe image bucket
func NewS3Config(ctx context.Context, cfg *Config) (*S3Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: cfg.S3Bucket,
		Region:     cfg.AWSRegion,
	}, nil
}

type policyStatement struct {
	Sid       string `json:"Sid"`
	Effect    string `json:"Effect"`
	Principal string `json:"Principal"`
	Action    string `json:"Action"`
	Resource  string `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// ReadPolicy is the bucket policy granting anonymous reads of recipe images only.
func (s *S3Config) ReadPolicy() (string, error) {
	policy, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "PublicReadRecipeImages",
			Effect:    "Allow",
			Principal: "*",
			Action:    "s3:GetObject",
			Resource:  "arn:aws:s3:::" + s.BucketName + "/" + imagePrefix + "*",
		}},
	})
	return string(policy), err
}

// SetupBucketPolicy applies ReadPolicy to the bucket.
func (s *S3Config) SetupBucketPolicy(ctx context.Context) error {
	policy, err := s.ReadPolicy()
	if err != nil {
		return err
	}
	_, err = s.Client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.BucketName),
		Policy: aws.String(policy),
	})
	return err
}

// PublicURL returns the virtual-hosted style URL of an object in a public bucket.
func (s *S3Config) PublicURL(objectKey string) string {
	return "https://" + s.BucketName + ".s3." + s.Region + ".amazonaws.com/" + objectKey
}
