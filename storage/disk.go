package storage

import (
	"net/http"
	"os"
	"path/filepath"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sys/unix"
)

type DiskStorage struct {
	Storage
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath string
	dirs     cmap.ConcurrentMap[string, bool]
}

func NewDiskStorage(bucket *Bucket) (*DiskStorage, error) {
	result := &DiskStorage{
		BasePath: bucket.Path,
		Storage: Storage{
			Bucket: *bucket,
		},
		dirs: cmap.New[bool](),
	}
	result.specifics = result
	if err := result.EnsureDirExists(result.BasePath); err != nil {
		return nil, err
	}
	result.UpdateSpace()
	return result, nil
}

// UpdateSpace refreshes the total and free space from the file system. Safe for concurrent use
func (s *DiskStorage) UpdateSpace() {
	stat := unix.Statfs_t{}
	if err := unix.Statfs(s.BasePath, &stat); err != nil {
		return
	}
	s.setSpace(stat.Blocks*uint64(stat.Bsize), stat.Bavail*uint64(stat.Bsize))
}

func (s *DiskStorage) GetFullPath(path string) string {
	return filepath.Join(s.BasePath, filepath.FromSlash(path))
}

func (s *DiskStorage) EnsureDirExists(dir string) error {
	if s.dirs.Has(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	s.dirs.Set(dir, true)
	return nil
}

func (s *DiskStorage) EnsureLocalFile(path string) error {
	if _, err := os.Stat(s.GetFullPath(path)); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *DiskStorage) ReleaseLocalFile(path string) {}

func (s *DiskStorage) DeleteRemoteFile(path string) error {
	return nil
}

func (s *DiskStorage) UpdateFile(path, mimeType string) error {
	return nil
}

func (s *DiskStorage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	fileName := s.GetFullPath(path)
	if _, err := os.Stat(fileName); err != nil {
		http.NotFound(writer, request)
		return
	}
	http.ServeFile(writer, request, fileName)
}
