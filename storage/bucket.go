package storage

import (
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

func (t StorageType) String() string {
	if t == StorageTypeS3 {
		return "s3"
	}
	return "disk"
}

type Bucket struct {
	Name          string
	StorageType   StorageType
	Path          string // Path on a drive or a prefix in a S3 bucket
	Region        string
	Endpoint      string // S3 compatible endpoint, empty for AWS
	AuthDetails   string // Authentication details. In case of S3 bucket - "key:secret"
	SSEEncryption string
}

// GetRemotePath returns the object key for a path relative to the bucket
func (b *Bucket) GetRemotePath(p string) string {
	return strings.TrimPrefix(path.Join(b.Path, p), "/")
}

func (b *Bucket) CreateSVC() (*s3.S3, error) {
	cfg := aws.Config{
		Region: aws.String(b.Region),
	}
	if b.Endpoint != "" {
		cfg.Endpoint = aws.String(b.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if key, secret, ok := strings.Cut(b.AuthDetails, ":"); ok {
		cfg.Credentials = credentials.NewStaticCredentials(key, secret, "")
	}
	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

// CreateS3DownloadURI returns a presigned GET URL for the object at path
func (b *Bucket) CreateS3DownloadURI(svc *s3.S3, path string, expiry time.Duration) (string, error) {
	req, _ := svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.Name),
		Key:    aws.String(b.GetRemotePath(path)),
	})
	return req.Presign(expiry)
}
