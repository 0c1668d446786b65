package storage

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"threadfinder/config"
	"threadfinder/logger"
)

var ErrNotFound = errors.New("file not found")

type StorageSpecificAPI interface {
	GetFullPath(path string) string
	EnsureDirExists(dir string) error
	EnsureLocalFile(path string) error
	ReleaseLocalFile(path string)
	DeleteRemoteFile(path string) error
	UpdateFile(path, mimeType string) error
	Serve(path string, request *http.Request, writer http.ResponseWriter)
}

type StorageAPI interface {
	StorageSpecificAPI

	Save(path, mimeType string, reader io.Reader) (int64, error)
	Delete(path string) error
	GetTotalSpace() uint64
	GetFreeSpace() uint64
	GetBucket() *Bucket
}

type Storage struct {
	specifics StorageSpecificAPI
	Bucket    Bucket

	// Space is refreshed while requests read it
	spaceMutex sync.RWMutex
	totalSpace uint64
	freeSpace  uint64
}

// New creates the upload storage configured through the environment
func New() (StorageAPI, error) {
	bucket := BucketFromConfig()
	logger.Log.WithFields(logger.Fields{"type": bucket.StorageType.String(), "name": bucket.Name, "path": bucket.Path}).
		Info("Upload storage")
	if bucket.StorageType == StorageTypeS3 {
		return NewS3Storage(&bucket)
	}
	return NewDiskStorage(&bucket)
}

func BucketFromConfig() Bucket {
	if config.S3_BUCKET != "" {
		return Bucket{
			Name:        config.S3_BUCKET,
			StorageType: StorageTypeS3,
			Path:        config.S3_PREFIX,
			Region:      config.S3_REGION,
			Endpoint:    config.S3_ENDPOINT,
			AuthDetails: config.S3_AUTH,
		}
	}
	return Bucket{
		Name:        "uploads",
		StorageType: StorageTypeFile,
		Path:        config.UPLOAD_DIR,
	}
}

func (s *Storage) GetTotalSpace() uint64 {
	s.spaceMutex.RLock()
	defer s.spaceMutex.RUnlock()
	return s.totalSpace
}

func (s *Storage) GetFreeSpace() uint64 {
	s.spaceMutex.RLock()
	defer s.spaceMutex.RUnlock()
	return s.freeSpace
}

func (s *Storage) setSpace(total, free uint64) {
	s.spaceMutex.Lock()
	s.totalSpace = total
	s.freeSpace = free
	s.spaceMutex.Unlock()
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

//
// NOTE: All the functions below work on a local file
//

// Save writes the local file and pushes it to the remote side (if any).
// The local copy stays until ReleaseLocalFile.
func (s *Storage) Save(path, mimeType string, reader io.Reader) (int64, error) {
	fileName := s.GetFullPath(path)
	if err := s.EnsureDirExists(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	file.Close()
	if err != nil {
		return result, err
	}
	return result, s.UpdateFile(path, mimeType)
}

// Delete removes both the local and the remote file
func (s *Storage) Delete(path string) error {
	err := os.Remove(s.GetFullPath(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return s.DeleteRemoteFile(path)
}

//
// Proxy methods
//

func (s *Storage) GetFullPath(path string) string {
	return s.specifics.GetFullPath(path)
}
func (s *Storage) EnsureDirExists(dir string) error {
	return s.specifics.EnsureDirExists(dir)
}
func (s *Storage) EnsureLocalFile(path string) error {
	return s.specifics.EnsureLocalFile(path)
}
func (s *Storage) ReleaseLocalFile(path string) {
	s.specifics.ReleaseLocalFile(path)
}
func (s *Storage) DeleteRemoteFile(path string) error {
	return s.specifics.DeleteRemoteFile(path)
}
func (s *Storage) UpdateFile(path, mimeType string) error {
	return s.specifics.UpdateFile(path, mimeType)
}
func (s *Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	s.specifics.Serve(path, request, writer)
}
