package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/sequence"
)

var ErrRunNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Integrator string             `json:"integrator"`
	Clock      string             `json:"clock"`
	Ticks      int                `json:"ticks"`
	Frozen     bool               `json:"frozen"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewRunMetadata describes a finished run. ID and Timestamp are filled in
// by the store on save.
func NewRunMetadata(cfg *config.Config, res *sequence.Result) RunMetadata {
	return RunMetadata{
		Preset:     cfg.Preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Integrator: cfg.Physics.Integrator,
		Clock:      cfg.Clock,
		Ticks:      res.Ticks,
		Frozen:     res.Frozen,
		Metrics:    res.Metrics,
	}
}

// Store archives launch runs.
type Store interface {
	Init() error
	Save(meta RunMetadata, frames []sequence.Frame) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadFrames(id string) ([]sequence.Frame, error)
	Close() error
}

// Open returns the store for cfg, initialized.
func Open(cfg config.StorageConfig) (Store, error) {
	var s Store
	switch cfg.Backend {
	case "file", "":
		s = New(cfg.Dir)
	case "sqlite":
		s = NewSQL(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func runID(meta RunMetadata) string {
	preset := meta.Preset
	if preset == "" {
		preset = "run"
	}
	return fmt.Sprintf("%s_%d", preset, meta.Timestamp.UnixNano())
}

// stamp fills in the identity fields Save is responsible for.
func stamp(meta *RunMetadata, now func() time.Time) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now()
	}
	if meta.ID == "" {
		meta.ID = runID(*meta)
	}
}
