package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BroadcastState custom type for our enum
type BroadcastState int

// Enum values for BroadcastState
const (
	BroadcastStarted BroadcastState = 0
	BroadcastDone    BroadcastState = 1
	BroadcastFailed  BroadcastState = 2
)

// Broadcast is one playout of an episode, kept as history.
type Broadcast struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	EpisodeID string `gorm:"index;not null;default:''"`
	Artist    string `gorm:"not null;default:''"`
	Song      string `gorm:"not null;default:''"`

	StartedAt time.Time
	EndedAt   time.Time
	Seconds   float64 `gorm:"not null;default:0"`

	State BroadcastState `gorm:"not null;default:0"`
	Notes string         `gorm:"not null;default:''"`
}

func (s *Store) GetBroadcast(ctx context.Context, id string) (*Broadcast, error) {
	var v Broadcast
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get Broadcast %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetBroadcast(ctx context.Context, v *Broadcast) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set Broadcast %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) ListBroadcasts(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Broadcast, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Broadcast{}

	q := s.db.Offset(offset).Limit(size)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list Broadcasts: %w", err)
	}
	return vs, nil
}

// LastBroadcast returns the most recently started broadcast, if any.
func (s *Store) LastBroadcast(ctx context.Context) (*Broadcast, error) {
	var v Broadcast
	if err := s.db.Order("started_at desc").First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get last Broadcast: %w", err)
	}
	return &v, nil
}
