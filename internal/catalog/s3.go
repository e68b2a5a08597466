package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// ObjectAPI is the subset of the S3 client the source uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source answers queries from exported query results stored under a
// bucket prefix. Objects whose key, relative to the prefix, matches the glob
// are merged into one snapshot on first use.
type S3Source struct {
	logger   logger.Logger
	client   ObjectAPI
	snapshot *snapshot
	bucket   string
	prefix   string
	glob     string
	mu       sync.Mutex
}

// NewS3Source creates a source from the catalog configuration using the
// default AWS credential chain. A configured endpoint switches the client to
// path-style addressing for S3-compatible stores.
func NewS3Source(ctx context.Context, cfg config.CatalogConfig, log logger.Logger) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, newFetchError("s3", KindConfig, fmt.Errorf("loading AWS config: %w", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SourceWithClient(client, cfg.Bucket, cfg.Prefix, cfg.Glob, log), nil
}

// NewS3SourceWithClient creates a source using an existing client.
func NewS3SourceWithClient(client ObjectAPI, bucket, prefix, glob string, log logger.Logger) *S3Source {
	if glob == "" {
		glob = defaultGlob
	}
	return &S3Source{
		logger: log,
		client: client,
		bucket: bucket,
		prefix: prefix,
		glob:   glob,
	}
}

// Name implements Source.
func (s *S3Source) Name() string { return "s3" }

// Query implements Source.
func (s *S3Source) Query(ctx context.Context, q Query) (*models.Payload, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	p, err := snap.answer(q)
	if err != nil {
		return nil, newFetchError(s.Name(), KindQuery, err)
	}
	return p, nil
}

func (s *S3Source) load(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		return s.snapshot, nil
	}

	keys, err := s.matchingKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("no objects match %q under s3://%s/%s", s.glob, s.bucket, s.prefix))
	}

	snap := &snapshot{}
	for _, key := range keys {
		data, err := s.read(ctx, key)
		if err != nil {
			return nil, err
		}
		payload, gqlErrs, err := decodeResponse(data)
		if err != nil {
			return nil, newFetchError(s.Name(), KindDecode, fmt.Errorf("%s: %w", key, err))
		}
		if len(gqlErrs) > 0 {
			return nil, newFetchError(s.Name(), KindQuery, fmt.Errorf("%s: %w", key, queryErrors(gqlErrs)))
		}
		snap.add(payload)
	}

	s.logger.Debug("Loaded catalog snapshot", "source", s.Name(), "bucket", s.bucket, "prefix", s.prefix, "files", snap.files)
	s.snapshot = snap
	return snap, nil
}

func (s *S3Source) matchingKeys(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var keys []string
	pages := s3.NewListObjectsV2Paginator(s.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, newFetchError(s.Name(), KindTransport, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, s.prefix, err))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
			ok, err := doublestar.Match(s.glob, rel)
			if err != nil {
				return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("matching %q: %w", s.glob, err))
			}
			if ok {
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *S3Source) read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, newFetchError(s.Name(), KindTransport, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, key, err))
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxResponseBytes))
	if err != nil {
		return nil, newFetchError(s.Name(), KindTransport, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, key, err))
	}
	return data, nil
}
