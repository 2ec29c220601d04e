package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// State custom type for our enum
type State int

// Enum values for State
const (
	Pending  State = 0
	Disabled State = 1
	Active   State = 2
)

type Episode struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	GUID   string `gorm:"uniqueIndex;not null"`
	Artist string `gorm:"index;not null;default:''"`
	Song   string `gorm:"not null;default:''"`
	Title  string `gorm:"not null;default:''"`

	MusicURL    string `gorm:"not null;default:''"`
	AltMusicURL string `gorm:"not null;default:''"`
	BackdropURL string `gorm:"not null;default:''"`

	Commentary  string `gorm:"not null;default:''"`
	ReleaseDate string `gorm:"not null;default:''"`

	PlayCount int   `gorm:"not null;default:0"`
	State     State `gorm:"not null;default:0"`
}

func (s *Store) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	var v Episode
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get Episode %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) GetEpisodeByGUID(ctx context.Context, guid string) (*Episode, error) {
	var v Episode
	if err := s.db.First(&v, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get Episode by guid %s: %w", guid, err)
	}
	return &v, nil
}

func (s *Store) SetEpisode(ctx context.Context, v *Episode) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set Episode %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	if err := s.db.Delete(&Episode{ID: id}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete Episode %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListEpisodes(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Episode, error) {
	filter = append(filter, Where("state != ?", Disabled))
	return s.ListAllEpisodes(ctx, page, size, orderBy, filter...)
}

func (s *Store) ListAllEpisodes(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Episode, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Episode{}

	q := s.db.Offset(offset).Limit(size)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list Episodes: %w", err)
	}
	return vs, nil
}

// NextEpisode returns the least played enabled episode matching the
// filters.
func (s *Store) NextEpisode(ctx context.Context, filter ...Filter) (*Episode, error) {
	var v Episode
	q := s.db.Where("state != ?", Disabled)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	q = q.Order("play_count asc, updated_at asc")
	if err := q.First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get next Episode: %w", err)
	}
	return &v, nil
}
