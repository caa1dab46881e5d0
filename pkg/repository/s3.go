package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

var s3Tracer = otel.Tracer("depcollect/repository/s3")

// S3API is the subset of the S3 client used by S3Reader
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config configures an S3 backed repository
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Reader reads descriptors stored as <prefix>/<groupId>/<artifactId>/<version>.yaml
type S3Reader struct {
	client S3API
	bucket string
	prefix string
	repo   Remote
	log    *logrus.Logger
}

// NewS3Client builds an S3 client from configuration
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var awsConfig aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// static credentials (MinIO or explicit keys)
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Reader creates a reader over a bucket
func NewS3Reader(client S3API, bucket, prefix string, log *logrus.Logger) *S3Reader {
	if log == nil {
		log = logrus.New()
	}
	return &S3Reader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		repo:   Remote{ID: "s3-" + bucket, URL: "s3://" + path.Join(bucket, prefix)},
		log:    log,
	}
}

// Key returns the object key of an artifact's descriptor
func (r *S3Reader) Key(a artifact.Artifact) string {
	return path.Join(r.prefix, a.GroupID(), a.ArtifactID(), a.Version()+DescriptorExt)
}

// ReadDescriptor implements DescriptorReader
func (r *S3Reader) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	key := r.Key(req.Artifact)
	ctx, span := s3Tracer.Start(ctx, "S3.ReadDescriptor",
		trace.WithAttributes(
			attribute.String("s3.bucket", r.bucket),
			attribute.String("s3.key", key),
			attribute.String("artifact", req.Artifact.String()),
		),
	)
	defer span.End()

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			span.SetStatus(codes.Error, "descriptor not found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Artifact)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object from s3")
		return nil, fmt.Errorf("failed to get descriptor from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read object body")
		return nil, fmt.Errorf("failed to read descriptor body: %w", err)
	}

	d, err := DecodeDescriptor(data, req.Artifact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid descriptor")
		return nil, fmt.Errorf("s3://%s/%s: %w", r.bucket, key, err)
	}

	span.SetAttributes(attribute.Int("descriptor.dependencies", len(d.Dependencies)))
	span.SetStatus(codes.Ok, "descriptor read")
	return d, nil
}

// ListVersions implements VersionLister
func (r *S3Reader) ListVersions(ctx context.Context, a artifact.Artifact, repos []Remote) ([]string, map[string]Remote, error) {
	prefix := path.Join(r.prefix, a.GroupID(), a.ArtifactID()) + "/"
	ctx, span := s3Tracer.Start(ctx, "S3.ListVersions",
		trace.WithAttributes(
			attribute.String("s3.bucket", r.bucket),
			attribute.String("s3.prefix", prefix),
		),
	)
	defer span.End()

	var versions []string
	hosts := make(map[string]Remote)
	var token *string
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to list objects")
			return nil, nil, fmt.Errorf("failed to list versions in s3: %w", err)
		}

		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, DescriptorExt) {
				continue
			}
			v := strings.TrimSuffix(name, DescriptorExt)
			versions = append(versions, v)
			hosts[v] = r.repo
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	span.SetAttributes(attribute.Int("versions.count", len(versions)))
	span.SetStatus(codes.Ok, "versions listed")
	return versions, hosts, nil
}

// ResolveVersionRange implements VersionRangeResolver
func (r *S3Reader) ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error) {
	return ResolveWith(ctx, r, req)
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
