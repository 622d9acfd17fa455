package collab

import (
	"encoding/json"
	"maps"
	"sync"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

// Presence is what other participants see of a user: name, pointer and tool.
type Presence struct {
	UserID      string          `json:"userId"`
	DisplayName string          `json:"displayName,omitempty"`
	Cursor      *geometry.Point `json:"cursor,omitempty"`
	Tool        string          `json:"tool,omitempty"`
}

// PresenceManager tracks the presence of every user in a room.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*Presence // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*Presence),
	}
}

func (pm *PresenceManager) Update(p *Presence) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[p.UserID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

func (pm *PresenceManager) Get(userID string) (*Presence, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.presences[userID]
	return p, ok
}

func (pm *PresenceManager) GetAll() map[string]*Presence {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage(docID string) (*Message, error) {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypePresenceState, DocID: docID, Payload: payload}, nil
}
