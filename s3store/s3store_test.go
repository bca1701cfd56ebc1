package s3store

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/testutil"
	"github.com/syncwell/treesync/synctypes"
)

// mockAPI implements API with overridable function fields. Unset fields
// return empty successful responses.
type mockAPI struct {
	listFunc func(ctx context.Context, params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	headFunc func(ctx context.Context, params *s3.HeadObjectInput,
		optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	putFunc func(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	deleteFunc func(ctx context.Context, params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockAPI) ListObjectsV2(
	ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	if m.listFunc == nil {
		return &s3.ListObjectsV2Output{}, nil
	}
	return m.listFunc(ctx, params, optFns...)
}

func (m *mockAPI) HeadObject(
	ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	if m.headFunc == nil {
		return &s3.HeadObjectOutput{}, nil
	}
	return m.headFunc(ctx, params, optFns...)
}

func (m *mockAPI) PutObject(
	ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.putFunc == nil {
		return &s3.PutObjectOutput{}, nil
	}
	return m.putFunc(ctx, params, optFns...)
}

func (m *mockAPI) DeleteObject(
	ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	if m.deleteFunc == nil {
		return &s3.DeleteObjectOutput{}, nil
	}
	return m.deleteFunc(ctx, params, optFns...)
}

var _ API = (*mockAPI)(nil)

// readerOnly hides Seek so the stitched upload path is exercised.
type readerOnly struct {
	io.Reader
}

func TestKeyMapping(t *testing.T) {
	key := keyFor("docs", "/home/me/notes/a.txt")
	assert.Equal(t, "docs/home/me/notes/a.txt", key)
	assert.Equal(t, "/home/me/notes/a.txt", externalIDFor("docs", key))
}

func TestListRecords(t *testing.T) {
	var listCalls []string
	mock := &mockAPI{
		listFunc: func(_ context.Context, params *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			token := aws.ToString(params.ContinuationToken)
			listCalls = append(listCalls, token)
			if token == "" {
				return &s3.ListObjectsV2Output{
					Contents:              []types.Object{{Key: aws.String("docs/home/a.txt")}},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page2"),
				}, nil
			}
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("docs/home/sub/b.txt")}},
			}, nil
		},
		headFunc: func(_ context.Context, params *s3.HeadObjectInput,
			_ ...func(*s3.Options),
		) (*s3.HeadObjectOutput, error) {
			key := aws.ToString(params.Key)
			return &s3.HeadObjectOutput{
				Metadata: map[string]string{
					"path":  "/" + strings.TrimPrefix(key, "docs/"),
					"hash":  "digest-of-" + key,
					"size":  "11",
					"mtime": "1700000000.25",
				},
			}, nil
		},
	}

	store := NewWithClient(mock, "my-bucket")
	records, err := store.ListRecords(context.Background(), "docs", "/home")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "page2"}, listCalls, "listing follows continuation tokens")

	require.Len(t, records, 2)
	assert.Equal(t, "/home/a.txt", records[0].ExternalID)
	assert.Equal(t, "/home/sub/b.txt", records[1].ExternalID)

	rec := records[0]
	assert.Equal(t, "/home/a.txt", rec.Metadata.Path)
	assert.Equal(t, "digest-of-docs/home/a.txt", rec.Metadata.Hash)
	require.NotNil(t, rec.Metadata.Size)
	assert.EqualValues(t, 11, *rec.Metadata.Size)
	require.NotNil(t, rec.Metadata.MTime)
	assert.Equal(t, 1700000000.25, *rec.Metadata.MTime)
}

func TestListRecordsPrefixes(t *testing.T) {
	var prefixes []string
	mock := &mockAPI{
		listFunc: func(_ context.Context, params *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			prefixes = append(prefixes, aws.ToString(params.Prefix))
			return &s3.ListObjectsV2Output{}, nil
		},
	}
	store := NewWithClient(mock, "my-bucket")

	_, err := store.ListRecords(context.Background(), "docs", "/home/me")
	require.NoError(t, err)
	_, err = store.ListRecords(context.Background(), "docs", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/home/me", "docs/"}, prefixes,
		"an empty path prefix scopes to the whole store")
}

func TestListRecordsLegacyMetadata(t *testing.T) {
	mock := &mockAPI{
		listFunc: func(_ context.Context, _ *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("docs/old/record.txt")}},
			}, nil
		},
		headFunc: func(_ context.Context, _ *s3.HeadObjectInput,
			_ ...func(*s3.Options),
		) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{
				Metadata: map[string]string{"hash": "h1", "mtime": "not-a-number"},
			}, nil
		},
	}
	store := NewWithClient(mock, "my-bucket")

	records, err := store.ListRecords(context.Background(), "docs", "")
	require.NoError(t, err)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "/old/record.txt", rec.ExternalID)
	assert.Equal(t, "/old/record.txt", rec.Metadata.Path, "missing path falls back to the ID")
	assert.Equal(t, "h1", rec.Metadata.Hash)
	assert.Nil(t, rec.Metadata.Size)
	assert.Nil(t, rec.Metadata.MTime, "unparseable values are treated as absent")
}

func TestListRecordsHeadFanOut(t *testing.T) {
	keys := make([]types.Object, 30)
	for i := range keys {
		keys[i] = types.Object{Key: aws.String("docs/f" + string(rune('a'+i)) + ".txt")}
	}

	var mu sync.Mutex
	var headed []string
	mock := &mockAPI{
		listFunc: func(_ context.Context, _ *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{Contents: keys}, nil
		},
		headFunc: func(_ context.Context, params *s3.HeadObjectInput,
			_ ...func(*s3.Options),
		) (*s3.HeadObjectOutput, error) {
			mu.Lock()
			headed = append(headed, aws.ToString(params.Key))
			mu.Unlock()
			return &s3.HeadObjectOutput{}, nil
		},
	}
	store := NewWithClient(mock, "my-bucket")

	records, err := store.ListRecords(context.Background(), "docs", "")
	require.NoError(t, err)

	assert.Len(t, records, len(keys))
	sort.Strings(headed)
	assert.Len(t, headed, len(keys), "every key gets exactly one metadata fetch")

	for i, obj := range keys {
		assert.Equal(t, externalIDFor("docs", aws.ToString(obj.Key)), records[i].ExternalID,
			"records come back in listing order")
	}
}

func TestListRecordsHeadFailure(t *testing.T) {
	mock := &mockAPI{
		listFunc: func(_ context.Context, _ *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("docs/a.txt")}},
			}, nil
		},
		headFunc: func(_ context.Context, _ *s3.HeadObjectInput,
			_ ...func(*s3.Options),
		) (*s3.HeadObjectOutput, error) {
			return nil, stderrors.New("throttled")
		},
	}
	store := NewWithClient(mock, "my-bucket")

	_, err := store.ListRecords(context.Background(), "docs", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestUpload(t *testing.T) {
	content := []byte("hello world, this is plain text content")
	size := int64(len(content))
	mtime := 1700000000.5

	newRequest := func() synctypes.UploadRequest {
		return synctypes.UploadRequest{
			ExternalID: "/home/me/a.txt",
			Overwrite:  true,
			Metadata: synctypes.RecordMetadata{
				Path:  "/home/me/a.txt",
				Hash:  testutil.Sha256Hex(content),
				Size:  &size,
				MTime: &mtime,
			},
		}
	}

	verify := func(t *testing.T, captured *s3.PutObjectInput) {
		t.Helper()
		require.NotNil(t, captured)
		assert.Equal(t, "my-bucket", aws.ToString(captured.Bucket))
		assert.Equal(t, "docs/home/me/a.txt", aws.ToString(captured.Key))
		assert.True(t, strings.HasPrefix(aws.ToString(captured.ContentType), "text/plain"))
		require.NotNil(t, captured.ContentLength)
		assert.Equal(t, size, *captured.ContentLength)

		assert.Equal(t, "/home/me/a.txt", captured.Metadata["path"])
		assert.Equal(t, testutil.Sha256Hex(content), captured.Metadata["hash"])
		assert.Equal(t, "39", captured.Metadata["size"])
		assert.Equal(t, "1700000000.5", captured.Metadata["mtime"])

		body, err := io.ReadAll(captured.Body)
		require.NoError(t, err)
		assert.Equal(t, content, body, "the sniffed bytes are not lost")
	}

	t.Run("seekable content", func(t *testing.T) {
		var captured *s3.PutObjectInput
		mock := &mockAPI{
			putFunc: func(_ context.Context, params *s3.PutObjectInput,
				_ ...func(*s3.Options),
			) (*s3.PutObjectOutput, error) {
				captured = params
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := NewWithClient(mock, "my-bucket")

		err := store.Upload(context.Background(), "docs", bytes.NewReader(content), newRequest())
		require.NoError(t, err)
		verify(t, captured)
	})

	t.Run("unseekable content", func(t *testing.T) {
		var captured *s3.PutObjectInput
		mock := &mockAPI{
			putFunc: func(_ context.Context, params *s3.PutObjectInput,
				_ ...func(*s3.Options),
			) (*s3.PutObjectOutput, error) {
				captured = params
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := NewWithClient(mock, "my-bucket")

		err := store.Upload(context.Background(), "docs",
			readerOnly{bytes.NewReader(content)}, newRequest())
		require.NoError(t, err)
		verify(t, captured)
	})

	t.Run("content larger than the sniff window", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), 5000)
		bigSize := int64(len(big))
		req := newRequest()
		req.Metadata.Size = &bigSize

		var captured *s3.PutObjectInput
		mock := &mockAPI{
			putFunc: func(_ context.Context, params *s3.PutObjectInput,
				_ ...func(*s3.Options),
			) (*s3.PutObjectOutput, error) {
				captured = params
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := NewWithClient(mock, "my-bucket")

		err := store.Upload(context.Background(), "docs", readerOnly{bytes.NewReader(big)}, req)
		require.NoError(t, err)

		body, err := io.ReadAll(captured.Body)
		require.NoError(t, err)
		assert.Len(t, body, 5000)
	})

	t.Run("nil content", func(t *testing.T) {
		store := NewWithClient(&mockAPI{}, "my-bucket")

		err := store.Upload(context.Background(), "docs", nil, newRequest())

		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestUploadWithoutOverwrite(t *testing.T) {
	t.Run("existing record rejected", func(t *testing.T) {
		putCalled := false
		mock := &mockAPI{
			headFunc: func(_ context.Context, _ *s3.HeadObjectInput,
				_ ...func(*s3.Options),
			) (*s3.HeadObjectOutput, error) {
				return &s3.HeadObjectOutput{}, nil
			},
			putFunc: func(_ context.Context, _ *s3.PutObjectInput,
				_ ...func(*s3.Options),
			) (*s3.PutObjectOutput, error) {
				putCalled = true
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := NewWithClient(mock, "my-bucket")

		err := store.Upload(context.Background(), "docs", bytes.NewReader([]byte("x")),
			synctypes.UploadRequest{ExternalID: "/a.txt"})

		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrRecordExists))
		assert.False(t, putCalled)
	})

	t.Run("absent record uploads", func(t *testing.T) {
		putCalled := false
		mock := &mockAPI{
			headFunc: func(_ context.Context, _ *s3.HeadObjectInput,
				_ ...func(*s3.Options),
			) (*s3.HeadObjectOutput, error) {
				return nil, stderrors.New("api error NotFound: Not Found")
			},
			putFunc: func(_ context.Context, _ *s3.PutObjectInput,
				_ ...func(*s3.Options),
			) (*s3.PutObjectOutput, error) {
				putCalled = true
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := NewWithClient(mock, "my-bucket")

		err := store.Upload(context.Background(), "docs", bytes.NewReader([]byte("x")),
			synctypes.UploadRequest{ExternalID: "/a.txt"})

		require.NoError(t, err)
		assert.True(t, putCalled)
	})
}

func TestDelete(t *testing.T) {
	var deletedKey string
	mock := &mockAPI{
		deleteFunc: func(_ context.Context, params *s3.DeleteObjectInput,
			_ ...func(*s3.Options),
		) (*s3.DeleteObjectOutput, error) {
			deletedKey = aws.ToString(params.Key)
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	store := NewWithClient(mock, "my-bucket")

	err := store.Delete(context.Background(), "docs", "/home/me/old.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/home/me/old.txt", deletedKey)
}

func TestDeleteFailure(t *testing.T) {
	mock := &mockAPI{
		deleteFunc: func(_ context.Context, _ *s3.DeleteObjectInput,
			_ ...func(*s3.Options),
		) (*s3.DeleteObjectOutput, error) {
			return nil, stderrors.New("access denied")
		},
	}
	store := NewWithClient(mock, "my-bucket")

	err := store.Delete(context.Background(), "docs", "/a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "/a.txt")
}

func TestNewRejectsEmptyBucket(t *testing.T) {
	_, err := New(context.Background(), "")

	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}
