package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config configures an S3Store against AWS or an S3-compatible endpoint.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Store keeps content in one bucket. ETags are the version tokens and writes
// are conditional on If-Match / If-None-Match.
type S3Store struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
}

// NewS3Store loads an AWS config with static credentials and returns a store bound to cfg.Bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: empty bucket")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 store: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *S3Store) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	escaped := strings.Join(segments, "/")
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + escaped
	case s.endpoint != "":
		return s.endpoint + "/" + s.bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escaped)
	}
}

func (s *S3Store) Get(ctx context.Context, p string) (*Object, error) {
	key := CleanPath(p)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Error("get", key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &TransportError{Op: "get", Path: key, Err: fmt.Errorf("read body: %w", err)}
	}
	return &Object{Path: key, Content: content, Version: aws.ToString(out.ETag), URL: s.objectURL(key)}, nil
}

func (s *S3Store) Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	key := CleanPath(p)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(http.DetectContentType(content)),
	}
	if expectedVersion == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(expectedVersion)
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		return nil, s3Error("put", key, err)
	}
	return &PutResult{Version: aws.ToString(out.ETag), URL: s.objectURL(key)}, nil
}

// Delete checks the current ETag before deleting; the check and the delete are
// two requests, so a concurrent writer can slip in between them.
func (s *S3Store) Delete(ctx context.Context, p string, version string) error {
	key := CleanPath(p)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3Error("delete", key, err)
	}
	if version != "" && aws.ToString(head.ETag) != version {
		return fmt.Errorf("delete %s: stale version %s: %w", key, version, ErrConflict)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3Error("delete", key, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, folder string) ([]Entry, error) {
	folder = CleanPath(folder)
	prefix := folder + "/"
	if folder == "" {
		prefix = ""
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s3Error("list", folder, err)
		}
		for _, cp := range page.CommonPrefixes {
			p := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			entries = append(entries, Entry{Name: strings.TrimPrefix(p, prefix), Path: p, Dir: true})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			e := Entry{Name: strings.TrimPrefix(key, prefix), Path: key, Version: aws.ToString(obj.ETag)}
			if obj.LastModified != nil {
				e.ModifiedAt = *obj.LastModified
			}
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return s3Error("ping", s.bucket, err)
	}
	return nil
}

func s3Error(op, key string, err error) error {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
		apiErr    smithy.APIError
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return ErrNotFound
	case errors.As(err, &apiErr):
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%s %s: %s: %w", op, key, apiErr.ErrorCode(), ErrConflict)
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		}
	}
	return &TransportError{Op: op, Path: key, Err: err}
}
