package storage

import (
	"atelier/internal/config"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// ossBackend 写入阿里云 OSS 的一个 bucket。
type ossBackend struct {
	bucket *oss.Bucket
}

func (b *ossBackend) exists(_ context.Context, key string) (bool, error) {
	return b.bucket.IsObjectExist(key)
}

func (b *ossBackend) put(ctx context.Context, key, contentType string, data []byte) error {
	options := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}
	return b.bucket.PutObject(key, bytes.NewReader(data), options...)
}

// NewOSSStorage 连接阿里云 OSS。
func NewOSSStorage(cfg config.Config) (Storage, error) {
	endpoint := strings.TrimSpace(cfg.StorageOSSEndpoint)
	bucketName := strings.TrimSpace(cfg.StorageOSSBucket)
	if endpoint == "" || bucketName == "" {
		return nil, errors.New("storage: missing OSS endpoint or bucket")
	}
	accessKey := strings.TrimSpace(cfg.StorageOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.StorageOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}

	return &remoteStorage{
		backend: &ossBackend{bucket: bucket},
		prefix:  trimPrefix(cfg.StorageOSSPrefix),
	}, nil
}
