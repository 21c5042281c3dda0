package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/launchsim/internal/sequence"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

// FileStore keeps one directory per run holding metadata.json and
// frames.csv.
type FileStore struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir, now: time.Now}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(meta RunMetadata, frames []sequence.Frame) (string, error) {
	stamp(&meta, s.now)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, frames); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}
	return meta.ID, nil
}

func (s *FileStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *FileStore) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FileStore) LoadFrames(id string) ([]sequence.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}
	defer file.Close()

	return ReadFramesCSV(file)
}
