package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fundacion/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	ErrUnsupportedPhoto = errors.New("unsupported photo type")
	ErrPhotoTooLarge    = errors.New("photo too large")
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PhotoStore keeps beneficiary photos in a private bucket and hands out
// short lived URLs to view them.
type PhotoStore struct {
	client    ObjectAPI
	presigner Presigner
	bucket    string
	urlTTL    time.Duration
}

func NewPhotoStore(client *s3.Client, bucket string, urlTTL time.Duration) *PhotoStore {
	return newPhotoStore(client, s3.NewPresignClient(client), bucket, urlTTL)
}

func newPhotoStore(client ObjectAPI, presigner Presigner, bucket string, urlTTL time.Duration) *PhotoStore {
	return &PhotoStore{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		urlTTL:    urlTTL,
	}
}

// Upload sniffs the content type from data, stores it under a fresh key for
// the beneficiary and returns the key.
func (p *PhotoStore) Upload(ctx context.Context, beneficiaryID string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	ext, ok := photoExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPhoto, contentType)
	}

	key := fmt.Sprintf("beneficiaries/%s/%s.%s", beneficiaryID, utils.NanoIDSize(16), ext)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %s: %w", key, err)
	}

	return key, nil
}

func (p *PhotoStore) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	return utils.ErrorWrapOrNil(err, "failed to delete photo")
}

func (p *PhotoStore) URL(ctx context.Context, key string) (string, error) {
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.urlTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign photo %s: %w", key, err)
	}

	return req.URL, nil
}

// ReadPhoto reads at most limit bytes, failing when the photo is larger.
func ReadPhoto(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrPhotoTooLarge, limit)
	}
	return data, nil
}
