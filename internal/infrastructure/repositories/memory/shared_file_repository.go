package memory

import (
	"context"
	"fmt"
	"sync"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
)

type MemorySharedFileRepository struct {
	files    map[domain.FileID]domain.SharedFile
	sessions map[domain.SessionID]map[domain.FileID]struct{}
	mu       sync.RWMutex
}

func NewMemorySharedFileRepository() ports.SharedFileRepository {
	return &MemorySharedFileRepository{
		files:    make(map[domain.FileID]domain.SharedFile),
		sessions: make(map[domain.SessionID]map[domain.FileID]struct{}),
	}
}

func (r *MemorySharedFileRepository) Create(ctx context.Context, file domain.SharedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[file.ID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrSharedFileExists, file.ID)
	}

	r.files[file.ID] = file
	ids, ok := r.sessions[file.Session]
	if !ok {
		ids = make(map[domain.FileID]struct{})
		r.sessions[file.Session] = ids
	}
	ids[file.ID] = struct{}{}
	return nil
}

func (r *MemorySharedFileRepository) GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return domain.SharedFile{}, domain.ErrSharedFileNotFound
	}
	return file, nil
}

func (r *MemorySharedFileRepository) ListBySession(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.sessions[session]
	files := make([]domain.SharedFile, 0, len(ids))
	for id := range ids {
		files = append(files, r.files[id])
	}
	return files, nil
}

func (r *MemorySharedFileRepository) Delete(ctx context.Context, id domain.FileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[id]
	if !exists {
		return domain.ErrSharedFileNotFound
	}

	delete(r.files, id)
	if ids := r.sessions[file.Session]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.sessions, file.Session)
		}
	}
	return nil
}
