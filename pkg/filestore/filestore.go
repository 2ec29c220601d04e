package filestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/fazztv/fztv/pkg/filestore/local"
	"github.com/fazztv/fztv/pkg/filestore/s3"
)

type fs interface {
	Upload(ctx context.Context, path, name string) error
	Download(ctx context.Context, path, name string) error
}

// Store archives rendered clips so a broadcast can be replayed or
// audited later.
type Store struct {
	fs fs
}

// SetClip uploads a rendered clip under the item guid.
func (s *Store) SetClip(ctx context.Context, path, guid string) error {
	return s.fs.Upload(ctx, path, Clip(guid))
}

// GetClip downloads the archived clip for an item guid, so an episode
// coming back on air doesn't have to be rendered again.
func (s *Store) GetClip(ctx context.Context, path, guid string) error {
	return s.fs.Download(ctx, path, Clip(guid))
}

func New(typ, conn string, debug bool) (*Store, error) {
	var fs fs
	switch typ {
	case "s3":
		split := strings.Split(conn, "@")
		if len(split) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 connection string %q", conn)
		}
		auth := strings.Split(split[0], ":")
		if len(auth) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 auth string %q", conn)
		}
		key := auth[0]
		secret := auth[1]
		loc := strings.Split(split[1], ".")
		if len(loc) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 location string %q", conn)
		}
		bucket := loc[0]
		region := loc[1]
		candidate, err := s3.New(key, secret, region, bucket, debug)
		if err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
		fs = candidate
	case "local":
		fs = local.New(conn, debug)
	default:
		return nil, fmt.Errorf("filestore: unknown file storage type %q", typ)
	}
	return &Store{fs: fs}, nil
}

func Clip(guid string) string {
	return guid + ".mp4"
}
