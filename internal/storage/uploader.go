// Package storage uploads media files to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client  putObjectAPI
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Uploader builds an uploader. Public URLs are baseURL + "/" + key; when
// baseURL is empty, endpoint/bucket is used.
func NewS3Uploader(client putObjectAPI, bucket, endpoint, baseURL string) *S3Uploader {
	if baseURL == "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Upload pushes the local temp file and returns its public URL. The local
// file is removed whether or not the upload succeeds; nothing is retried.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload file failed: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := u.objectKey(ext)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	}); err != nil {
		return "", fmt.Errorf("put object failed: %w", err)
	}
	return u.baseURL + "/" + key, nil
}

func (u *S3Uploader) objectKey(ext string) string {
	d := u.now()
	return fmt.Sprintf("media/%d/%d/%d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
