package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/sequence"
)

const sqliteFile = "runs.db"

type runRecord struct {
	ID         string `gorm:"primaryKey"`
	Preset     string
	CreatedAt  time.Time `gorm:"index"`
	Seed       int64
	Dt         float64
	Integrator string
	Clock      string
	Ticks      int
	Frozen     bool
	Metrics    datatypes.JSONType[map[string]float64]
}

func (runRecord) TableName() string { return "runs" }

type frameRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Tick      int
	Elapsed   float64
	Stage     string
	TargetVY  float64
	Vibrating bool
	Frozen    bool
	Rig       string
	HasBody   bool
	X, Y, Z   float64
	VX        float64
	VY        float64
	VZ        float64
}

func (frameRecord) TableName() string { return "frames" }

// SQLStore keeps runs in a SQLite database under its directory.
type SQLStore struct {
	dir string
	db  *gorm.DB
	now func() time.Time
}

func NewSQL(dir string) *SQLStore {
	return &SQLStore{dir: dir, now: time.Now}
}

func (s *SQLStore) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(s.dir, sqliteFile)), &gorm.Config{
		PrepareStmt:     true,
		CreateBatchSize: 2000,
		Logger:          logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	if err := db.AutoMigrate(&runRecord{}, &frameRecord{}); err != nil {
		return fmt.Errorf("migrate run database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Save(meta RunMetadata, frames []sequence.Frame) (string, error) {
	stamp(&meta, s.now)

	run := runRecord{
		ID:         meta.ID,
		Preset:     meta.Preset,
		CreatedAt:  meta.Timestamp,
		Seed:       meta.Seed,
		Dt:         meta.Dt,
		Integrator: meta.Integrator,
		Clock:      meta.Clock,
		Ticks:      meta.Ticks,
		Frozen:     meta.Frozen,
		Metrics:    datatypes.NewJSONType(meta.Metrics),
	}
	rows := make([]frameRecord, len(frames))
	for i, f := range frames {
		rows[i] = toFrameRecord(meta.ID, f)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func (s *SQLStore) List() ([]RunMetadata, error) {
	var runs []runRecord
	if err := s.db.Order("created_at").Find(&runs).Error; err != nil {
		return nil, err
	}
	out := make([]RunMetadata, len(runs))
	for i, r := range runs {
		out[i] = r.metadata()
	}
	return out, nil
}

func (s *SQLStore) Load(id string) (*RunMetadata, error) {
	var r runRecord
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}
	meta := r.metadata()
	return &meta, nil
}

func (s *SQLStore) LoadFrames(id string) ([]sequence.Frame, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	var rows []frameRecord
	if err := s.db.Where("run_id = ?", id).Order("tick").Find(&rows).Error; err != nil {
		return nil, err
	}

	frames := make([]sequence.Frame, len(rows))
	for i, row := range rows {
		f, err := row.frame()
		if err != nil {
			return nil, fmt.Errorf("run %s tick %d: %w", id, row.Tick, err)
		}
		frames[i] = f
	}
	return frames, nil
}

func (r runRecord) metadata() RunMetadata {
	return RunMetadata{
		ID:         r.ID,
		Preset:     r.Preset,
		Timestamp:  r.CreatedAt,
		Seed:       r.Seed,
		Dt:         r.Dt,
		Integrator: r.Integrator,
		Clock:      r.Clock,
		Ticks:      r.Ticks,
		Frozen:     r.Frozen,
		Metrics:    r.Metrics.Data(),
	}
}

func toFrameRecord(runID string, f sequence.Frame) frameRecord {
	return frameRecord{
		RunID:     runID,
		Tick:      f.Tick,
		Elapsed:   f.Elapsed,
		Stage:     f.Stage.String(),
		TargetVY:  f.TargetVelocityY,
		Vibrating: f.Vibrating,
		Frozen:    f.Frozen,
		Rig:       f.Rig.String(),
		HasBody:   f.HasBody,
		X:         f.Position.X,
		Y:         f.Position.Y,
		Z:         f.Position.Z,
		VX:        f.Velocity.X,
		VY:        f.Velocity.Y,
		VZ:        f.Velocity.Z,
	}
}

func (r frameRecord) frame() (sequence.Frame, error) {
	var (
		stage launch.Stage
		rig   camera.Rig
	)
	if err := stage.UnmarshalText([]byte(r.Stage)); err != nil {
		return sequence.Frame{}, err
	}
	if err := rig.UnmarshalText([]byte(r.Rig)); err != nil {
		return sequence.Frame{}, err
	}
	return sequence.Frame{
		Tick:            r.Tick,
		Elapsed:         r.Elapsed,
		Stage:           stage,
		TargetVelocityY: r.TargetVY,
		Vibrating:       r.Vibrating,
		Frozen:          r.Frozen,
		Rig:             rig,
		HasBody:         r.HasBody,
		Position:        dynamo.Vec3{X: r.X, Y: r.Y, Z: r.Z},
		Velocity:        dynamo.Vec3{X: r.VX, Y: r.VY, Z: r.VZ},
	}, nil
}
