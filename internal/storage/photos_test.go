package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put     *s3.PutObjectInput
	deleted *s3.DeleteObjectInput
	err     error
}

func (f *fakeObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = params
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeObjects) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = params
	return &s3.DeleteObjectOutput{}, f.err
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + *params.Key}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUpload(t *testing.T) {
	objects := &fakeObjects{}
	store := newPhotoStore(objects, &fakePresigner{}, "photos", time.Minute)

	key, err := store.Upload(context.Background(), "ben-1", pngHeader)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "beneficiaries/ben-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	require.NotNil(t, objects.put)
	assert.Equal(t, "photos", *objects.put.Bucket)
	assert.Equal(t, key, *objects.put.Key)
	assert.Equal(t, "image/png", *objects.put.ContentType)
	assert.Equal(t, int64(len(pngHeader)), *objects.put.ContentLength)
}

func TestUploadRejectsNonImages(t *testing.T) {
	objects := &fakeObjects{}
	store := newPhotoStore(objects, &fakePresigner{}, "photos", time.Minute)

	_, err := store.Upload(context.Background(), "ben-1", []byte("%PDF-1.7 not a photo"))
	require.ErrorIs(t, err, ErrUnsupportedPhoto)
	assert.Nil(t, objects.put)
}

func TestUploadPropagatesErrors(t *testing.T) {
	boom := errors.New("access denied")
	store := newPhotoStore(&fakeObjects{err: boom}, &fakePresigner{}, "photos", time.Minute)

	_, err := store.Upload(context.Background(), "ben-1", pngHeader)
	require.ErrorIs(t, err, boom)
}

func TestURL(t *testing.T) {
	presigner := &fakePresigner{}
	store := newPhotoStore(&fakeObjects{}, presigner, "photos", 15*time.Minute)

	url, err := store.URL(context.Background(), "beneficiaries/x/y.png")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/beneficiaries/x/y.png", url)
	assert.Equal(t, 15*time.Minute, presigner.expires)
}

func TestDelete(t *testing.T) {
	objects := &fakeObjects{}
	store := newPhotoStore(objects, &fakePresigner{}, "photos", time.Minute)

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.Equal(t, "k", *objects.deleted.Key)
}

func TestReadPhoto(t *testing.T) {
	data, err := ReadPhoto(bytes.NewReader([]byte("12345")), 5)
	require.NoError(t, err)
	assert.Len(t, data, 5)

	_, err = ReadPhoto(bytes.NewReader([]byte("123456")), 5)
	assert.ErrorIs(t, err, ErrPhotoTooLarge)
}
