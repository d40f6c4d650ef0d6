package repository

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/utils"
)

// UploadRepository stores uploaded images in a shared directory. Files are
// never cleaned up by the service.
type UploadRepository struct {
	fs          afero.Fs
	dir         string
	uniqueNames bool
	logger      *zap.Logger
}

func NewUploadRepository(fs afero.Fs, dir string, uniqueNames bool, logger *zap.Logger) (*UploadRepository, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory '%s': %w", dir, err)
	}
	repo := &UploadRepository{
		fs:          fs,
		dir:         dir,
		uniqueNames: uniqueNames,
		logger:      logger.With(zap.String("component", "uploads")),
	}
	repo.logger.Info("[Uploads] repository initialized",
		zap.String("dir", dir), zap.Bool("unique_names", uniqueNames))
	return repo, nil
}

// SaveFile persists a multipart upload and returns its path.
func (r *UploadRepository) SaveFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload '%s': %w", fh.Filename, err)
	}
	defer src.Close()
	return r.Save(fh.Filename, src)
}

// Save writes src under a key derived from originalName.
func (r *UploadRepository) Save(originalName string, src io.Reader) (string, error) {
	path := filepath.Join(r.dir, utils.GenerateStorageKey(originalName, r.uniqueNames))

	dst, err := r.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create '%s': %w", path, err)
	}
	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write '%s': %w", path, err)
	}

	r.logger.Debug("[Uploads] file saved", zap.String("path", path), zap.Int64("bytes", written))
	return path, nil
}

func (r *UploadRepository) Dir() string { return r.dir }
