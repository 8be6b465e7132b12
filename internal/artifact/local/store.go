package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/railzwaylabs/audittrail/internal/artifact/domain"
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const retentionKeyPrefix = "artifact:retention:"

// Store keeps artifact bytes on the local filesystem and tracks each
// artifact's retention window as a redis key with a TTL. Once the key
// expires the artifact is no longer downloadable, regardless of whether the
// file has been swept yet.
type Store struct {
	dir       string
	baseURL   string
	retention time.Duration
	rdb       *redis.Client
	log       *zap.Logger
}

func New(cfg config.Config, rdb *redis.Client, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Artifact.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	retentionDays := cfg.Artifact.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &Store{
		dir:       cfg.Artifact.Dir,
		baseURL:   strings.TrimRight(cfg.Artifact.BaseURL, "/"),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		rdb:       rdb,
		log:       log.Named("artifact.local"),
	}, nil
}

func (s *Store) Put(ctx context.Context, in domain.PutInput) (domain.Handle, int64, error) {
	name := fmt.Sprintf("%s/%s/%s.%s", in.OrgID.String(), in.JobID.String(), uuid.NewString(), in.Ext)
	path := filepath.Join(s.dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}

	size, err := io.Copy(f, in.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}

	if err := s.rdb.Set(ctx, retentionKeyPrefix+name, in.ContentType, s.retention).Err(); err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return domain.Handle(name), size, nil
}

func (s *Store) Open(ctx context.Context, h domain.Handle) (io.ReadCloser, string, error) {
	contentType, err := s.rdb.Get(ctx, retentionKeyPrefix+string(h)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", domain.ErrArtifactExpired
	}
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(string(h))))
	if os.IsNotExist(err) {
		return nil, "", domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return f, contentType, nil
}

func (s *Store) ResolveDownloadURL(ctx context.Context, h domain.Handle) (string, time.Time, error) {
	ttl, err := s.rdb.TTL(ctx, retentionKeyPrefix+string(h)).Result()
	if err != nil {
		return "", time.Time{}, err
	}
	if ttl < 0 {
		return "", time.Time{}, domain.ErrArtifactExpired
	}

	jobID, err := jobIDFromHandle(h)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s/%s/download", s.baseURL, jobID), time.Now().UTC().Add(ttl), nil
}

func (s *Store) Delete(ctx context.Context, h domain.Handle) error {
	if err := s.rdb.Del(ctx, retentionKeyPrefix+string(h)).Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(string(h))))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// jobIDFromHandle recovers the job segment of an "<org>/<job>/<object>" name.
func jobIDFromHandle(h domain.Handle) (string, error) {
	parts := strings.Split(string(h), "/")
	if len(parts) != 3 {
		return "", domain.ErrArtifactNotFound
	}
	return parts[1], nil
}
