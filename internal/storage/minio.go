package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures a MinioStore. A non-empty Region skips the bucket
// location lookup.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// MinioStore implements Store on an S3 compatible bucket. It uses the same
// <id>.zip plus <id>.json layout as BillyStore.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects to the bucket, creating it if needed.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *MinioStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// translateError maps missing objects to ErrNotFound.
func translateError(id string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// Save uploads the archive and then its sidecar.
func (s *MinioStore) Save(ctx context.Context, info models.ArchiveInfo, data []byte) (*models.ArchiveInfo, error) {
	info.ID = uuid.New().String()
	info.Size = int64(len(data))
	info.CreatedAt = time.Now()

	_, err := s.client.PutObject(ctx, s.bucket, s.key(archiveName(info.ID)),
		bytes.NewReader(data), info.Size, minio.PutObjectOptions{ContentType: "application/zip"})
	if err != nil {
		return nil, fmt.Errorf("uploading archive: %w", err)
	}

	meta, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.key(metaName(info.ID)),
		bytes.NewReader(meta), int64(len(meta)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		_ = s.client.RemoveObject(ctx, s.bucket, s.key(archiveName(info.ID)), minio.RemoveObjectOptions{})
		return nil, fmt.Errorf("uploading archive metadata: %w", err)
	}
	return &info, nil
}

// Get downloads the metadata sidecar.
func (s *MinioStore) Get(ctx context.Context, id string) (*models.ArchiveInfo, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.readMeta(ctx, id, s.key(metaName(id)))
}

func (s *MinioStore) readMeta(ctx context.Context, id, key string) (*models.ArchiveInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateError(id, err)
	}
	var info models.ArchiveInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding metadata of %s: %w", id, err)
	}
	return &info, nil
}

// Open streams the archive object.
func (s *MinioStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	key := s.key(archiveName(id))
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, translateError(id, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(id, err)
	}
	return obj, nil
}

// List reads every sidecar under the prefix.
func (s *MinioStore) List(ctx context.Context, limit int) ([]*models.ArchiveInfo, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if s.prefix != "" {
		opts.Prefix = s.prefix + "/"
	}

	var list []*models.ArchiveInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing archives: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, metaExt) {
			continue
		}
		id := strings.TrimSuffix(path.Base(obj.Key), metaExt)
		info, err := s.readMeta(ctx, id, obj.Key)
		if err != nil {
			continue
		}
		list = append(list, info)
	}
	return newestFirst(list, limit), nil
}

// Delete removes the archive and its sidecar.
func (s *MinioStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	for _, name := range []string{archiveName(id), metaName(id)} {
		if err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("deleting %s: %w", name, err)
		}
	}
	return nil
}
