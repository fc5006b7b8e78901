package mail

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Uploader is the part of manager.Uploader the spool needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Spool drops each message into a bucket as a .eml object for a mail relay
// to pick up.
type S3Spool struct {
	uploader Uploader
	bucket   string
	prefix   string
	from     string
	now      func() time.Time
}

type S3SpoolOptions struct {
	Bucket    string
	KeyPrefix string
	From      string
}

func NewS3Spool(client *s3.Client, opts S3SpoolOptions) (*S3Spool, error) {
	return newS3Spool(manager.NewUploader(client), opts)
}

func newS3Spool(uploader Uploader, opts S3SpoolOptions) (*S3Spool, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("mail spool bucket is required")
	}
	return &S3Spool{
		uploader: uploader,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.KeyPrefix, "/"),
		from:     opts.From,
		now:      time.Now,
	}, nil
}

func (s *S3Spool) Send(ctx context.Context, to, subject, body string) error {
	msg := newMessage(s.from, to, subject, body, s.now())
	key := path.Join(s.prefix, msg.Date.Format("2006/01/02"), msg.ID+".eml")

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(msg.RFC5322()),
		ContentType: aws.String("message/rfc822"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("spool mail to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
