package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	TypeLocal = "local"
	TypeMinio = "minio"
)

var ErrInvalidKey = errors.New("invalid object key")

// Provider stores uploaded source files for later audit.
type Provider interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Type      string
	LocalPath string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// New returns the provider selected by cfg.Type, local disk by default.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Type {
	case TypeMinio:
		return NewMinioProvider(ctx, cfg)
	case TypeLocal, "":
		return NewLocalProvider(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// cleanKey rejects keys escaping the storage root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", ErrInvalidKey
	}
	return k, nil
}

// ===== LOCAL DISK =====

type LocalProvider struct {
	root string
}

func NewLocalProvider(root string) (*LocalProvider, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalProvider{root: root}, nil
}

func (p *LocalProvider) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(p.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return k, nil
}

func (p *LocalProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(p.root, filepath.FromSlash(k)))
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(p.root, filepath.FromSlash(k))); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ===== MINIO =====

type MinioProvider struct {
	client *minio.Client
	bucket string
}

func NewMinioProvider(ctx context.Context, cfg Config) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
	}

	return &MinioProvider{client: client, bucket: cfg.MinioBucket}, nil
}

func (p *MinioProvider) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if _, err := p.client.PutObject(ctx, p.bucket, k, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return k, nil
}

func (p *MinioProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return p.client.GetObject(ctx, p.bucket, k, minio.GetObjectOptions{})
}

func (p *MinioProvider) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	return p.client.RemoveObject(ctx, p.bucket, k, minio.RemoveObjectOptions{})
}
