package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DownloadDir copies every object below prefix into dir, keeping the key
// structure relative to prefix.
func DownloadDir(ctx context.Context, provider Provider, bucket, prefix, dir string) error {
	objects, err := provider.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("%w: no objects under s3://%s/%s", ErrObjectNotFound, bucket, prefix)
	}

	for _, obj := range objects {
		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Name, prefix), "/")
		if rel == "" {
			continue
		}
		if err := provider.DownloadObject(ctx, bucket, obj.Name, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	return nil
}

// UploadDir uploads every regular file in dir below prefix. onFile, if not
// nil, is called with the size of each file after it has been uploaded.
func UploadDir(ctx context.Context, provider Provider, bucket, prefix, dir string, onFile func(size int64)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		key := filepath.ToSlash(rel)
		if prefix != "" {
			key = strings.TrimSuffix(prefix, "/") + "/" + key
		}

		if err := provider.PutObject(ctx, bucket, key, file); err != nil {
			return err
		}
		if onFile != nil {
			onFile(info.Size())
		}
		return nil
	})
}

// DirSize returns the total size of the regular files in dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
