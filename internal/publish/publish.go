package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/roach88/synthsweep/internal/report"
)

// ObjectStore is the subset of the object store API the publisher needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
}

// MinioStore adapts a minio client to ObjectStore.
type MinioStore struct {
	client *minio.Client
}

// Put uploads one object.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("minio store not initialized")
	}
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Object is one uploaded file.
type Object struct {
	Key  string
	Path string
	Size int64
}

// Publisher uploads reports.
type Publisher struct {
	Store  ObjectStore
	Bucket string
	Prefix string
	Logger *slog.Logger
}

// New connects to the store described by cfg and creates the bucket when
// missing.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	client, err := NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := ensureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("publish: ensure bucket %s: %w", cfg.Bucket, err)
	}
	return &Publisher{Store: &MinioStore{client: client}, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Publish uploads the report at reportPath, any extra files (such as the
// JSON context) and every artifact the context links to, under
// Prefix/sweepID. Keys are relative to the deepest directory containing all
// files, so relative links resolve identically in the bucket.
func (p *Publisher) Publish(ctx context.Context, sweepID, reportPath string, rc report.Context, extra ...string) ([]Object, error) {
	reportAbs, err := filepath.Abs(reportPath)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	files := []string{reportAbs}
	for _, e := range extra {
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
		files = append(files, abs)
	}
	seen := map[string]bool{}
	for _, f := range files {
		seen[f] = true
	}
	reportDir := filepath.Dir(reportAbs)
	for _, d := range rc.Designs {
		for _, c := range d.Combinations {
			for _, a := range c.Artifacts {
				if !a.Present() {
					continue
				}
				abs := filepath.Join(reportDir, filepath.FromSlash(a.Link))
				if !seen[abs] {
					seen[abs] = true
					files = append(files, abs)
				}
			}
		}
	}

	root := commonDir(files)
	objects := make([]Object, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return objects, fmt.Errorf("publish: %w", err)
		}
		key := path.Join(p.Prefix, sweepID, filepath.ToSlash(rel))
		obj, err := p.put(ctx, key, f)
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	p.logger().Info("published report", "bucket", p.Bucket, "objects", len(objects),
		"report", path.Join(p.Prefix, sweepID, filepath.ToSlash(mustRel(root, reportAbs))))
	return objects, nil
}

func (p *Publisher) put(ctx context.Context, key, file string) (Object, error) {
	f, err := os.Open(file)
	if err != nil {
		return Object{}, fmt.Errorf("publish: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("publish: %w", err)
	}
	if err := p.Store.Put(ctx, p.Bucket, key, f, info.Size(), contentType(file)); err != nil {
		return Object{}, fmt.Errorf("publish %s: %w", key, err)
	}
	p.logger().Debug("uploaded object", "key", key, "size", info.Size())
	return Object{Key: key, Path: file, Size: info.Size()}, nil
}

func contentType(file string) string {
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".v", ".sv", ".dot":
		return "text/plain; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}

// commonDir returns the deepest directory containing every file.
func commonDir(files []string) string {
	root := filepath.Dir(files[0])
	for _, f := range files[1:] {
		dir := filepath.Dir(f)
		for !within(root, dir) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func mustRel(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}
