package kv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(in.Key)
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, exists := f.objects[key]; exists {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
		}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Repository_SetGetDelete(t *testing.T) {
	api := newFakeObjects()
	r := NewS3Repository(api, "bucket", "device-1")
	ctx := context.Background()

	v, err := r.Get(ctx, "jobs")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Set(ctx, "jobs", []byte("iv:ct")))
	assert.Contains(t, api.objects, "device-1/jobs")

	v, err = r.Get(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, []byte("iv:ct"), v)

	require.NoError(t, r.Delete(ctx, "jobs"))
	v, err = r.Get(ctx, "jobs")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestS3Repository_SetIfAbsent(t *testing.T) {
	r := NewS3Repository(newFakeObjects(), "bucket", "")
	ctx := context.Background()

	got, err := r.SetIfAbsent(ctx, "vault:salt", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	got, err = r.SetIfAbsent(ctx, "vault:salt", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestS3Repository_Clear(t *testing.T) {
	api := newFakeObjects()
	api.objects["other/ignored"] = []byte("x")
	r := NewS3Repository(api, "bucket", "p/")
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))

	assert.Len(t, api.objects, 3)

	require.NoError(t, r.Clear(ctx))
	assert.Equal(t, map[string][]byte{"other/ignored": []byte("x")}, api.objects)
}

func TestS3Repository_ErrorsWrapped(t *testing.T) {
	api := newFakeObjects()
	api.err = errors.New("network down")
	r := NewS3Repository(api, "bucket", "")
	ctx := context.Background()

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get kv[k]")

	require.ErrorContains(t, r.Set(ctx, "k", nil), "failed to set kv[k]")

	_, err = r.SetIfAbsent(ctx, "k", nil)
	require.ErrorContains(t, err, "failed to set kv[k]")

	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete kv[k]")

	require.ErrorContains(t, r.Clear(ctx), "failed to clear kv")
}
