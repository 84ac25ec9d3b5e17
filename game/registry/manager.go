package registry

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/room"
)

// Room code space
const (
	MinCode = 1000
	MaxCode = 9999

	// randomAttempts bounds random probing before falling back to a scan.
	randomAttempts = 32
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNoCodesAvailable = errors.New("no room codes available")
)

// Manager handles room lifecycle
type Manager struct {
	sender room.Sender
	rules  room.Rules

	// generate returns a candidate code; swapped in tests.
	generate func() int

	mu    sync.RWMutex
	rooms map[string]*room.Room
}

// New creates a registry whose rooms deliver through sender and play by rules.
func New(sender room.Sender, rules room.Rules) *Manager {
	return &Manager{
		sender:   sender,
		rules:    rules,
		generate: randomCode,
		rooms:    make(map[string]*room.Room),
	}
}

// Rules returns the arena rules new rooms are created with.
func (m *Manager) Rules() room.Rules {
	return m.rules
}

// Create registers a new empty room under an unused code.
func (m *Manager) Create() (*room.Room, error) {
	return m.CreateWith(nil)
}

// CreateWith builds a room under an unused code and runs seat on it before
// the code becomes visible to Get or List. If seat fails the room is closed
// and never registered.
func (m *Manager) CreateWith(seat func(*room.Room) error) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.freeCodeLocked()
	if err != nil {
		return nil, err
	}

	r := room.New(id, m.sender, m.rules)
	if seat != nil {
		if err := seat(r); err != nil {
			r.Close()
			return nil, err
		}
	}
	m.rooms[id] = r

	log.Info().Str("room", id).Int("rooms", len(m.rooms)).Msg("Room created")
	return r, nil
}

// Get retrieves a room by code
func (m *Manager) Get(id string) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Remove drops a room. Removing an unknown code is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[id]; !exists {
		return
	}
	delete(m.rooms, id)
	log.Info().Str("room", id).Int("rooms", len(m.rooms)).Msg("Room removed")
}

// List returns all live rooms ordered by code
func (m *Manager) List() []*room.Room {
	m.mu.RLock()
	result := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		result = append(result, r)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID() < result[j].ID()
	})
	return result
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown closes every room and empties the registry.
func (m *Manager) Shutdown() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	closed := len(m.rooms)
	for id, r := range m.rooms {
		r.Close()
		delete(m.rooms, id)
	}
	if closed > 0 {
		log.Info().Int("rooms", closed).Msg("Closed rooms on shutdown")
	}
	return closed
}

func (m *Manager) freeCodeLocked() (string, error) {
	for i := 0; i < randomAttempts; i++ {
		id := strconv.Itoa(m.generate())
		if _, taken := m.rooms[id]; !taken {
			return id, nil
		}
	}

	// The space is crowded; take the first gap.
	for code := MinCode; code <= MaxCode; code++ {
		id := strconv.Itoa(code)
		if _, taken := m.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", ErrNoCodesAvailable
}

func randomCode() int {
	return MinCode + rand.IntN(MaxCode-MinCode+1)
}
