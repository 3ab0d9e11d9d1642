package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
)

const (
	TypeNone  = "none"
	TypeLocal = "local"
	TypeS3    = "s3"
)

type Archive interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Type         string
	LocalPath    string
	S3Bucket     string
	S3Region     string
	S3Prefix     string
	AWSAccessKey string
	AWSSecretKey string
}

// New returns nil, nil for TypeNone.
func New(ctx context.Context, cfg Config) (Archive, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", TypeNone:
		return nil, nil
	case TypeLocal:
		return NewLocal(cfg.LocalPath)
	case TypeS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

// objectKey spreads sources across two-character prefixes of the document id.
func objectKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return path.Join(shard, key+".txt"), nil
}
