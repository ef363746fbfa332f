package memory

import (
	"context"
	"sync"
)

// AdminRepository holds the admin PIN in memory.
type AdminRepository struct {
	mu  sync.RWMutex
	pin string
}

func NewAdminRepository(pin string) *AdminRepository {
	return &AdminRepository{pin: pin}
}

func (r *AdminRepository) GetPin(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pin, nil
}

func (r *AdminRepository) UpdatePin(_ context.Context, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pin = pin
	return nil
}
