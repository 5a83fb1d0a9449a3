package storage

import (
	"context"
	"errors"
	"fmt"
)

// objectBackend 是云端对象存储的最小操作面。归档流程只需要两个
// 动作：探测对象是否已存在，以及带内容类型的整段上传。
type objectBackend interface {
	exists(ctx context.Context, key string) (bool, error)
	put(ctx context.Context, key, contentType string, data []byte) error
}

// remoteStorage 统一各云后端的归档写入流程：以记录 ID 为基名生成
// 带日期目录的对象键，拼接可选前缀，已存在的对象按需跳过重传。
type remoteStorage struct {
	backend objectBackend
	prefix  string
}

func (s *remoteStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}

	key := buildObjectPath(opts.Category, opts.BaseName, opts.Extension)
	if s.prefix != "" {
		key = joinPrefix(s.prefix, key)
	}

	if opts.SkipIfExists {
		found, err := s.backend.exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check object: %w", err)
		}
		if found {
			return key, nil
		}
	}

	if err := s.backend.put(ctx, key, detectContentType(opts.Extension), data); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

var _ Storage = (*remoteStorage)(nil)
