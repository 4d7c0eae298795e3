package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/agileandy/bbcbasic/pkg/logger"
)

// rateLimitInfo counts connection attempts from one address.
type rateLimitInfo struct {
	requests  int
	lastReset time.Time
}

// ClientManager tracks live sessions and limits how fast one address can
// open new ones.
type ClientManager struct {
	sessions   map[string]*Session
	rateLimits map[string]*rateLimitInfo
	perMinute  int
	mu         sync.RWMutex
}

// NewClientManager allows perMinute connections per address each minute.
func NewClientManager(perMinute int) *ClientManager {
	return &ClientManager{
		sessions:   make(map[string]*Session),
		rateLimits: make(map[string]*rateLimitInfo),
		perMinute:  perMinute,
	}
}

// AddSession registers a session under its id.
func (cm *ClientManager) AddSession(s *Session) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.sessions[s.id] = s
	logger.Debug(logger.AreaSession, "session %s added for %s", s.id, s.username)
}

// RemoveSession forgets a session. Removing an unknown id is a no-op.
func (cm *ClientManager) RemoveSession(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, exists := cm.sessions[sessionID]; exists {
		delete(cm.sessions, sessionID)
		logger.Debug(logger.AreaSession, "session %s removed", sessionID)
	}
}

// Count returns the number of live sessions.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.sessions)
}

// HasSession reports whether a session is live.
func (cm *ClientManager) HasSession(sessionID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.sessions[sessionID]
	return exists
}

// CloseAll ends every session, as on server shutdown.
func (cm *ClientManager) CloseAll() {
	cm.mu.RLock()
	sessions := make([]*Session, 0, len(cm.sessions))
	for _, s := range cm.sessions {
		sessions = append(sessions, s)
	}
	cm.mu.RUnlock()
	for _, s := range sessions {
		s.close()
	}
}

// CheckRateLimit records a connection attempt from ipAddress and fails
// once the address has made too many in the last minute.
func (cm *ClientManager) CheckRateLimit(ipAddress string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	rateLimit, exists := cm.rateLimits[ipAddress]
	if !exists {
		rateLimit = &rateLimitInfo{lastReset: now}
		cm.rateLimits[ipAddress] = rateLimit
	}
	if now.Sub(rateLimit.lastReset) > time.Minute {
		rateLimit.requests = 0
		rateLimit.lastReset = now
	}
	rateLimit.requests++
	if cm.perMinute > 0 && rateLimit.requests > cm.perMinute {
		logger.ServerWarn("Rate limit exceeded for IP %s: %d requests in last minute", ipAddress, rateLimit.requests)
		return fmt.Errorf("rate limit exceeded: too many requests from %s", ipAddress)
	}
	return nil
}
