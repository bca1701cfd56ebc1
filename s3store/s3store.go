// Package s3store implements the treesync Store contract over Amazon S3.
//
// Each record is one object whose key nests the record's external ID under
// the store identifier, so several stores can share a bucket. The
// change-detection metadata (source path, content hash, size, modification
// time) rides along as S3 user metadata and is recovered with a HeadObject
// per key during listing. Records written by older clients may lack size
// and mtime; those fields come back nil and the content hash decides.
package s3store

import (
	"bytes"
	"context"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/pool"
	"github.com/syncwell/treesync/internal/validation"
	"github.com/syncwell/treesync/synctypes"
)

// User-metadata keys stored on every object. S3 lowercases metadata keys,
// so these are lowercase from the start.
const (
	metaPath  = "path"
	metaHash  = "hash"
	metaSize  = "size"
	metaMTime = "mtime"
)

const (
	// DefaultContentType is used when content type detection fails.
	DefaultContentType = "application/octet-stream"

	// headConcurrency bounds the metadata fan-out while listing records.
	headConcurrency = 10

	// listPageSize is the ListObjectsV2 page size.
	listPageSize = 1000
)

// API defines the S3 operations the store uses. The AWS SDK client
// satisfies it; tests substitute a mock.
type API interface {
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	HeadObject(
		ctx context.Context,
		params *s3.HeadObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.HeadObjectOutput, error)

	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)

	DeleteObject(
		ctx context.Context,
		params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

var _ API = (*s3.Client)(nil)

// Store is a treesync Store backed by one S3 bucket.
type Store struct {
	api    API
	bucket string
}

var _ synctypes.Store = (*Store)(nil)

// New creates a Store over bucket, loading AWS credentials through the
// default credential chain. Pass config.LoadOptions functions to adjust
// region, credentials, or endpoint.
//
// Example:
//
//	store, err := s3store.New(ctx, "my-bucket",
//	    config.WithRegion("us-west-2"),
//	)
func New(ctx context.Context, bucket string, optFns ...func(*config.LoadOptions) error) (*Store, error) {
	if bucket == "" {
		return nil, errors.NewValidationError("store initialization", "bucket cannot be empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.NewError("store initialization", err)
	}

	return &Store{api: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewWithClient creates a Store using a caller-supplied S3 client.
// This is primarily used for testing with mocked clients.
func NewWithClient(api API, bucket string) *Store {
	return &Store{api: api, bucket: bucket}
}

// ListRecords returns the records under storeID whose external ID begins
// with pathPrefix; an empty pathPrefix returns every record. Matching is
// by raw prefix, the way S3 lists keys; callers scope deletions
// themselves.
//
// Listing pages through the bucket, then fetches each object's user
// metadata with a bounded HeadObject fan-out.
func (s *Store) ListRecords(ctx context.Context, storeID, pathPrefix string) ([]synctypes.FileRecord, error) {
	prefix := storeID + "/"
	if pathPrefix != "" {
		prefix = keyFor(storeID, pathPrefix)
	}

	var keys []string
	var continuationToken *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:  aws.String(s.bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(listPageSize),
		}
		if continuationToken != nil {
			input.ContinuationToken = continuationToken
		}

		result, err := s.api.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, errors.NewError("list records", err).WithStoreID(storeID)
		}

		for _, obj := range result.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}

		if !aws.ToBool(result.IsTruncated) {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	records := make([]synctypes.FileRecord, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(headConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			head, err := s.api.HeadObject(gctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return errors.NewError("read record metadata", err).
					WithStoreID(storeID).
					WithPath(externalIDFor(storeID, key))
			}
			records[i] = recordFrom(storeID, key, head)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

// Upload writes content under req.ExternalID with the request's metadata
// attached as S3 user metadata. The content type is sniffed from the
// first bytes. With req.Overwrite false, an existing record is an error.
func (s *Store) Upload(ctx context.Context, storeID string, content io.Reader, req synctypes.UploadRequest) error {
	if content == nil {
		return errors.NewValidationError("upload", "content cannot be nil")
	}
	key := keyFor(storeID, req.ExternalID)

	if !req.Overwrite {
		exists, err := s.exists(ctx, key)
		if err != nil {
			return errors.NewError("upload", err).WithStoreID(storeID).WithPath(req.ExternalID)
		}
		if exists {
			return errors.NewError("upload", errors.ErrRecordExists).
				WithStoreID(storeID).
				WithPath(req.ExternalID)
		}
	}

	contentType, body, err := s.sniffContentType(content)
	if err != nil {
		return errors.NewError("upload", err).WithStoreID(storeID).WithPath(req.ExternalID)
	}

	metadata := validation.SanitizeMetadata(map[string]string{
		metaPath: req.Metadata.Path,
		metaHash: req.Metadata.Hash,
	})
	if req.Metadata.Size != nil {
		metadata[metaSize] = strconv.FormatInt(*req.Metadata.Size, 10)
	}
	if req.Metadata.MTime != nil {
		metadata[metaMTime] = strconv.FormatFloat(*req.Metadata.MTime, 'f', -1, 64)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}
	if req.Metadata.Size != nil {
		input.ContentLength = aws.Int64(*req.Metadata.Size)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return errors.NewError("upload", err).WithStoreID(storeID).WithPath(req.ExternalID)
	}
	return nil
}

// Delete removes the record identified by externalID. Deleting a record
// that does not exist is not an error; S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, storeID, externalID string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyFor(storeID, externalID)),
	})
	if err != nil {
		return errors.NewError("delete", err).WithStoreID(storeID).WithPath(externalID)
	}
	return nil
}

// exists reports whether key is present in the bucket.
func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// sniffContentType detects the content type from the first bytes of
// content. A seekable reader is rewound afterwards; otherwise the
// consumed bytes are stitched back in front of the remaining stream.
func (s *Store) sniffContentType(content io.Reader) (string, io.Reader, error) {
	sniff := pool.GetSniffBuffer()
	defer pool.PutSniffBuffer(sniff)

	n, err := io.ReadFull(content, sniff)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}

	contentType := DefaultContentType
	if n > 0 {
		contentType = mimetype.Detect(sniff[:n]).String()
	}

	if seeker, ok := content.(io.ReadSeeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", nil, err
		}
		return contentType, content, nil
	}

	head := make([]byte, n)
	copy(head, sniff[:n])
	return contentType, io.MultiReader(bytes.NewReader(head), content), nil
}

// keyFor maps a record identity to its object key. External IDs are
// slash-form absolute paths, so trimming the leading slash nests them
// under the store identifier.
func keyFor(storeID, externalID string) string {
	return path.Join(storeID, strings.TrimPrefix(externalID, "/"))
}

// externalIDFor inverts keyFor.
func externalIDFor(storeID, key string) string {
	return "/" + strings.TrimPrefix(key, storeID+"/")
}

// recordFrom rebuilds a FileRecord from an object's user metadata.
// Missing or unparseable size and mtime come back nil.
func recordFrom(storeID, key string, head *s3.HeadObjectOutput) synctypes.FileRecord {
	rec := synctypes.FileRecord{ExternalID: externalIDFor(storeID, key)}

	rec.Metadata.Path = head.Metadata[metaPath]
	if rec.Metadata.Path == "" {
		rec.Metadata.Path = rec.ExternalID
	}
	rec.Metadata.Hash = head.Metadata[metaHash]

	if raw, ok := head.Metadata[metaSize]; ok {
		if size, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.Metadata.Size = &size
		}
	}
	if raw, ok := head.Metadata[metaMTime]; ok {
		if mtime, err := strconv.ParseFloat(raw, 64); err == nil {
			rec.Metadata.MTime = &mtime
		}
	}
	return rec
}
