package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"heartgram/internal/common"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const maxListedLogos = 50

var allowedLogoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Asset is a stored object belonging to an event
type Asset struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// AssetStore keeps event logos under {event}/logos/ in object storage.
// File contents are never inspected.
type AssetStore interface {
	Upload(ctx context.Context, tenantID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*Asset, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Asset, error)
	Delete(ctx context.Context, tenantID uuid.UUID, key string) error
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

// objectClient is the subset of *minio.Client used here
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type minioAssetStore struct {
	client    objectClient
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMinioAssetStore connects to MinIO. publicURL is the base used for returned
// asset URLs; it defaults to the endpoint.
func NewMinioAssetStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (AssetStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}
	return newAssetStore(client, bucket, publicURL), nil
}

func newAssetStore(client objectClient, bucket, publicURL string) *minioAssetStore {
	return &minioAssetStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func logoPrefix(tenantID uuid.UUID) string {
	return tenantID.String() + "/logos/"
}

func (m *minioAssetStore) Upload(ctx context.Context, tenantID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*Asset, error) {
	ext, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported logo type %q", common.ErrValidation, contentType)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: logo file is empty", common.ErrValidation)
	}

	key := logoPrefix(tenantID) + fmt.Sprintf("%d-%s%s", m.now().UnixNano(), sanitizeBaseName(filename), ext)
	if _, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("%w: upload logo: %v", common.ErrInternal, err)
	}

	return &Asset{
		Key:          key,
		URL:          m.objectURL(key),
		Size:         size,
		ContentType:  contentType,
		LastModified: m.now(),
	}, nil
}

// List returns the event's logos, newest first
func (m *minioAssetStore) List(ctx context.Context, tenantID uuid.UUID) ([]*Asset, error) {
	assets := make([]*Asset, 0)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    logoPrefix(tenantID),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list logos: %v", common.ErrInternal, obj.Err)
		}
		assets = append(assets, &Asset{
			Key:          obj.Key,
			URL:          m.objectURL(obj.Key),
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].LastModified.After(assets[j].LastModified)
	})
	if len(assets) > maxListedLogos {
		assets = assets[:maxListedLogos]
	}
	return assets, nil
}

// Delete removes a logo. Keys outside the event's logo folder are refused.
func (m *minioAssetStore) Delete(ctx context.Context, tenantID uuid.UUID, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", common.ErrValidation)
	}
	if !strings.HasPrefix(key, logoPrefix(tenantID)) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: asset does not belong to this event", common.ErrForbidden)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: delete logo: %v", common.ErrInternal, err)
	}
	return nil
}

func (m *minioAssetStore) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioAssetStore) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

func (m *minioAssetStore) objectURL(key string) string {
	return m.publicURL + "/" + m.bucket + "/" + key
}

// sanitizeBaseName keeps [a-z0-9-_] from the file name without its extension
func sanitizeBaseName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "logo"
	}
	name := b.String()
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
