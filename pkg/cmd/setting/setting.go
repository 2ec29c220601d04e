package setting

import (
	"context"
	"fmt"

	"github.com/fazztv/fztv/pkg/storage"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string

	Service string
	Name    string
	Value   string
}

// Run stores a credential or parameter in the settings table so it
// doesn't have to travel on the command line of every run.
func Run(ctx context.Context, cfg *Config) error {
	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("setting: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("setting: couldn't start orm store: %w", err)
	}

	if cfg.Name == "" {
		return fmt.Errorf("setting: name is empty")
	}
	if cfg.Value == "" {
		return fmt.Errorf("setting: value is empty")
	}

	switch cfg.Service {
	case "rtmp", "openai", "youtube", "s3":
	default:
		return fmt.Errorf("setting: unknown service: %s", cfg.Service)
	}

	id := fmt.Sprintf("%s/%s", cfg.Service, cfg.Name)
	s := storage.Setting{
		ID:    id,
		Value: cfg.Value,
	}
	if err := store.SetSetting(ctx, &s); err != nil {
		return fmt.Errorf("setting: couldn't save setting: %w", err)
	}
	return nil
}
