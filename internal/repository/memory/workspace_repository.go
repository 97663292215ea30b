package memory

import (
	"time"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag/workspace"

	"github.com/patrickmn/go-cache"
)

// WorkspaceRepository keeps one workspace per session. Workspaces expire after ttl of
// inactivity and their conversations are closed on eviction.
type WorkspaceRepository struct {
	cache  *cache.Cache
	ttl    time.Duration
	logger logger.ILogger
}

func NewWorkspaceRepository(ttl time.Duration, log logger.ILogger) *WorkspaceRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	c.OnEvicted(func(id string, v interface{}) {
		v.(*workspace.Workspace).Close()
		log.Debug("WORKSPACE", "Workspace closed", map[string]interface{}{"session_id": id})
	})
	return &WorkspaceRepository{cache: c, ttl: ttl, logger: log}
}

// Create starts a workspace for a new session, replacing any previous one with the same id.
func (r *WorkspaceRepository) Create(sessionID string) *workspace.Workspace {
	ws := workspace.New(sessionID, r.logger)
	r.cache.Set(sessionID, ws, cache.DefaultExpiration)
	return ws
}

// Get returns the session's workspace and extends its lifetime.
func (r *WorkspaceRepository) Get(sessionID string) (*workspace.Workspace, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	ws := x.(*workspace.Workspace)
	r.cache.Set(sessionID, ws, cache.DefaultExpiration)
	return ws, true
}

func (r *WorkspaceRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *WorkspaceRepository) Count() int {
	return r.cache.ItemCount()
}

// DropAssistant removes the assistant's conversation from every live workspace and returns
// how many were dropped.
func (r *WorkspaceRepository) DropAssistant(name string) int {
	dropped := 0
	for _, item := range r.cache.Items() {
		if item.Expired() {
			continue
		}
		if item.Object.(*workspace.Workspace).Drop(name) {
			dropped++
		}
	}
	return dropped
}
