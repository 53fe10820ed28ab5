package store

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/flowkit/errors"
)

// Memory is an in-process Store. Safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	deployments map[string]*Deployment // by id
	byKey       map[string]string      // idempotency key -> id
	feedback    map[string]*Feedback
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		deployments: make(map[string]*Deployment),
		byKey:       make(map[string]string),
		feedback:    make(map[string]*Feedback),
	}
}

func (m *Memory) CreateDeployment(_ context.Context, d *Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byKey[d.IdempotencyKey]; ok && d.IdempotencyKey != "" {
		if existing := m.deployments[id]; existing != nil && existing.State != StateRolledBack {
			return errors.New(errors.ErrCodeConflict,
				"deployment with this idempotency key already exists", 409)
		}
	}

	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	m.deployments[d.ID] = &cp
	if d.IdempotencyKey != "" {
		m.byKey[d.IdempotencyKey] = d.ID
	}
	return nil
}

func (m *Memory) DeploymentByKey(_ context.Context, idempotencyKey string) (*Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[idempotencyKey]
	if !ok {
		return nil, errors.NotFound("deployment", idempotencyKey)
	}
	d, ok := m.deployments[id]
	if !ok {
		return nil, errors.NotFound("deployment", idempotencyKey)
	}
	cp := *d
	return &cp, nil
}

func (m *Memory) UpdateDeployment(_ context.Context, d *Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.deployments[d.ID]; !ok {
		return errors.NotFound("deployment", d.ID)
	}
	d.UpdatedAt = time.Now()
	cp := *d
	m.deployments[d.ID] = &cp
	return nil
}

func (m *Memory) DeleteDeployment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.deployments[id]; ok {
		delete(m.byKey, d.IdempotencyKey)
		delete(m.deployments, id)
	}
	return nil
}

func (m *Memory) SaveFeedback(_ context.Context, f *Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.CreatedAt = time.Now()
	cp := *f
	m.feedback[f.ID] = &cp
	return nil
}

func (m *Memory) FeedbackByID(_ context.Context, id string) (*Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.feedback[id]
	if !ok {
		return nil, errors.NotFound("feedback", id)
	}
	cp := *f
	return &cp, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() {}
