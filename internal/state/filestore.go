package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// FileStore persists the snapshot as a JSON document. Saves go through
// a temp file plus rename, so a crash mid-write leaves the previous
// snapshot intact. A sidecar lock file guards against two bridge
// instances sharing one state file.
type FileStore struct {
	path     string
	lockPath string
	logger   *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.StoreError{Op: "init", Err: err}
	}
	store := &FileStore{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
	}
	lock, err := os.OpenFile(store.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, &domain.StoreError{
				Op:  "lock",
				Err: fmt.Errorf("state file %s already in use (stale lock? remove %s)", path, store.lockPath),
			}
		}
		return nil, &domain.StoreError{Op: "lock", Err: err}
	}
	fmt.Fprintf(lock, "%d\n", os.Getpid())
	_ = lock.Close()
	return store, nil
}

func (s *FileStore) Load() (*domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no persisted state, starting fresh", zap.String("path", s.path))
			return nil, nil
		}
		return nil, &domain.StoreError{Op: "load", Err: err}
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, &domain.StoreError{Op: "load", Err: err}
	}
	return &snapshot, nil
}

func (s *FileStore) Save(snapshot domain.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return &domain.StoreError{Op: "save", Err: err}
	}
	tmp := s.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.StoreError{Op: "save", Err: err}
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return &domain.StoreError{Op: "save", Err: err}
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return &domain.StoreError{Op: "save", Err: err}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return &domain.StoreError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &domain.StoreError{Op: "save", Err: err}
	}
	return nil
}

// Close releases the instance lock. The snapshot file itself stays.
func (s *FileStore) Close() error {
	if err := os.Remove(s.lockPath); err != nil && !os.IsNotExist(err) {
		return &domain.StoreError{Op: "unlock", Err: err}
	}
	return nil
}

var _ port.SnapshotStore = (*FileStore)(nil)
