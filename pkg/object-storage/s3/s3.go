package s3

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3 struct {
	Endpoint  string
	Region    string
	Bucket    string
	ak        string
	sk        string
	pathStyle bool
	cli       *s3.Client
}

type Option func(*S3)

// WithPathStyle addresses objects as endpoint/bucket/key, required by MinIO.
func WithPathStyle(v bool) Option {
	return func(s *S3) {
		s.pathStyle = v
	}
}

func NewS3Client(endpoint, region, bucket, ak, sk string, opts ...Option) *S3 {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}
	for _, opt := range opts {
		opt(cli)
	}

	if _, err := cli.DefaultConfig(context.Background()); err != nil {
		panic(err)
	}

	return cli
}

func (s *S3) DefaultConfig(ctx context.Context) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
	}
	if s.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               s.Endpoint,
				SigningRegion:     s.Region,
				HostnameImmutable: s.pathStyle,
			}, nil
		})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.pathStyle
	})
	return cfg, nil
}

func (s *S3) Upload(ctx context.Context, fullPath, contentType string, body io.Reader) error {
	s3Manager := manager.NewUploader(s.cli)
	_, err := s3Manager.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(strings.TrimPrefix(fullPath, "/")),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3) GetObject(ctx context.Context, fullPath string) ([]byte, error) {
	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(fullPath, "/")),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *S3) Delete(ctx context.Context, fullPath string) error {
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(fullPath, "/")),
	})
	return err
}
