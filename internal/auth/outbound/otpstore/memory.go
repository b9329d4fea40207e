package otpstore

import (
	"context"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// Memory is a process-local store for single-instance runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]entity.OTP
	clock   clocker
}

func NewMemory(clock clocker) *Memory {
	return &Memory{records: make(map[string]entity.OTP), clock: clock}
}

func (m *Memory) Put(_ context.Context, phone, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[phone] = entity.OTP{Phone: phone, Code: code, CreatedAt: m.clock.Now()}
	return nil
}

func (m *Memory) Get(_ context.Context, phone string) (*entity.OTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[phone]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, phone)
	return nil
}
