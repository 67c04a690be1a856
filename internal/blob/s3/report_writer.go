package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// ReportWriter implements domain.ReportWriter by uploading rendered reports
// as single objects under a key prefix.
type ReportWriter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewReportWriter creates a ReportWriter uploading to the client's bucket.
// prefix defaults to "reports".
func NewReportWriter(c *Client, prefix string) *ReportWriter {
	if prefix == "" {
		prefix = "reports"
	}
	return &ReportWriter{
		client: c.S3(),
		bucket: c.Bucket(),
		prefix: strings.Trim(prefix, "/"),
	}
}

// WriteReport uploads a report payload in one PutObject call. Reports are
// JSON documents, small enough that multipart upload is never needed.
func (w *ReportWriter) WriteReport(ctx context.Context, name string, payload []byte) error {
	key := w.prefix + "/" + strings.TrimLeft(name, "/")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	}

	if _, err := w.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3blob: put report %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ReportWriter = (*ReportWriter)(nil)
