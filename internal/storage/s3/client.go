package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	metadataAuthor = "Author"

	errFailedUploadObjectFmt                 = "failed to upload object %s: %w"
	errFailedGeneratePresignedDownloadURLFmt = "failed to generate presigned download URL: %w"
	errFailedHeadObjectFmt                   = "failed to read object %s: %w"
)

// Client stores profile pictures in a single bucket.
type Client struct {
	svc                s3iface.S3API
	bucket             string
	presignedURLExpiry time.Duration
}

func NewClient(sess *session.Session, bucket string, presignedURLExpiry time.Duration) *Client {
	return NewClientWithAPI(s3.New(sess), bucket, presignedURLExpiry)
}

func NewClientWithAPI(svc s3iface.S3API, bucket string, presignedURLExpiry time.Duration) *Client {
	return &Client{
		svc:                svc,
		bucket:             bucket,
		presignedURLExpiry: presignedURLExpiry,
	}
}

// PutPicture uploads data under key, tagging the uploader as Author.
func (c *Client) PutPicture(ctx context.Context, key string, data []byte, contentType, author string) error {
	_, err := c.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]*string{
			metadataAuthor: aws.String(author),
		},
	})
	if err != nil {
		return fmt.Errorf(errFailedUploadObjectFmt, key, err)
	}
	return nil
}

// Exists reports whether key is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf(errFailedHeadObjectFmt, key, err)
}

func (c *Client) GeneratePresignedDownloadURL(ctx context.Context, key string) (string, error) {
	req, _ := c.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(c.presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf(errFailedGeneratePresignedDownloadURLFmt, err)
	}

	return url, nil
}

func (c *Client) PresignedURLExpiry() time.Duration {
	return c.presignedURLExpiry
}
