package model

import (
	"sync"

	"github.com/ekisa-team/campus-assistant/internal/config"
)

// ModelStatus is the lifecycle state of a registered model.
type ModelStatus string

const (
	ModelStatusUnloaded ModelStatus = "unloaded"
	ModelStatusReady    ModelStatus = "ready"
	ModelStatusFailed   ModelStatus = "failed"
)

// ModelInstance is a configured model resolved to a usable location.
type ModelInstance struct {
	ID     string
	Config *config.ModelConfig

	// Path is a local file or directory for downloaded models, or the
	// model name for remote APIs.
	Path string

	mu     sync.RWMutex
	status ModelStatus
}

// NewModelInstance creates an instance in the unloaded state.
func NewModelInstance(cfg *config.ModelConfig, id, path string) *ModelInstance {
	return &ModelInstance{
		ID:     id,
		Config: cfg,
		Path:   path,
		status: ModelStatusUnloaded,
	}
}

// Status returns the current status.
func (m *ModelInstance) Status() ModelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.status
}

// SetStatus updates the status.
func (m *ModelInstance) SetStatus(s ModelStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = s
}
