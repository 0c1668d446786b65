package storage

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"threadfinder/config"
	"threadfinder/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const presignViewURLFor = time.Hour

type S3Storage struct {
	Storage
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) (*S3Storage, error) {
	svc, err := bucket.CreateSVC()
	if err != nil {
		return nil, err
	}
	result := &S3Storage{
		Storage: Storage{
			Bucket: *bucket,
		},
		s3Client: svc,
	}
	result.specifics = result
	return result, nil
}

// GetFullPath returns local temp path in case of S3
func (s *S3Storage) GetFullPath(path string) string {
	return filepath.Join(config.TMP_DIR, strings.ReplaceAll(path, "/", "_"))
}

func (s *S3Storage) EnsureDirExists(dir string) error {
	return nil
}

// EnsureLocalFile downloads a S3 object locally, unless the local copy is still there
func (s *S3Storage) EnsureLocalFile(path string) error {
	if _, err := os.Stat(s.GetFullPath(path)); err == nil {
		return nil
	}
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(s.Bucket.GetRemotePath(path)),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(s.GetFullPath(path))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func (s *S3Storage) ReleaseLocalFile(path string) {
	if err := os.Remove(s.GetFullPath(path)); err != nil && !os.IsNotExist(err) {
		logger.Log.WithField("path", path).Warnf("Cannot remove local copy: %v", err)
	}
}

// UpdateFile updates the remote S3 object (uploads the local copy)
func (s *S3Storage) UpdateFile(path, mimeType string) error {
	data, err := os.Open(s.GetFullPath(path))
	if err != nil {
		return err
	}
	defer data.Close()

	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	input := s3manager.UploadInput{
		Bucket:      &s.Bucket.Name,
		Key:         aws.String(s.Bucket.GetRemotePath(path)),
		ContentType: &mimeType,
		Body:        data,
	}
	if s.Bucket.SSEEncryption != "" {
		input.ServerSideEncryption = &s.Bucket.SSEEncryption
	}
	_, err = uploader.Upload(&input)
	return err
}

func (s *S3Storage) DeleteRemoteFile(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(s.Bucket.GetRemotePath(path)),
	})
	return err
}

// Serve redirects to a short lived presigned URL
func (s *S3Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	url, err := s.Bucket.CreateS3DownloadURI(s.s3Client, path, presignViewURLFor)
	if err != nil {
		logger.Log.WithField("path", path).Errorf("Cannot presign: %v", err)
		http.Error(writer, "cannot serve file", http.StatusInternalServerError)
		return
	}
	http.Redirect(writer, request, url, http.StatusFound)
}
