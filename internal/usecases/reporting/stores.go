package reporting

import (
	"sync"
	"time"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

// CatalogStore is the process-scoped cache of structural entities, one
// snapshot per account and level. It is populated (and fully overwritten) by
// the catalog sync, read by status and budget resolution, and cleared when an
// account is removed. It is never a hidden singleton: the owner wires it
// explicitly into everything that reads it.
type CatalogStore struct {
	mu sync.RWMutex
	// account id -> level -> entity id -> entity
	entities map[string]map[domain.Level]map[string]*domain.CatalogEntity
	// account id -> campaign id -> adset children synced at least once.
	// The all-children-paused downgrade only fires when this is set, so a
	// campaign is never downgraded on partial data.
	childrenLoaded map[string]map[string]bool
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		entities:       make(map[string]map[domain.Level]map[string]*domain.CatalogEntity),
		childrenLoaded: make(map[string]map[string]bool),
	}
}

// ReplaceLevel overwrites the whole snapshot of one level for an account.
func (s *CatalogStore) ReplaceLevel(accountID string, level domain.Level, entities []*domain.CatalogEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAccount, ok := s.entities[accountID]
	if !ok {
		byAccount = make(map[domain.Level]map[string]*domain.CatalogEntity)
		s.entities[accountID] = byAccount
	}

	byID := make(map[string]*domain.CatalogEntity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	byAccount[level] = byID

	if level == domain.LevelAdset {
		loaded, ok := s.childrenLoaded[accountID]
		if !ok {
			loaded = make(map[string]bool)
			s.childrenLoaded[accountID] = loaded
		}
		for campaignID := range byAccount[domain.LevelCampaign] {
			loaded[campaignID] = true
		}
		for _, e := range entities {
			if e.ParentID != "" {
				loaded[e.ParentID] = true
			}
		}
	}
}

// Get returns an entity by level and id, or nil when the catalog has no
// record of it.
func (s *CatalogStore) Get(accountID string, level domain.Level, id string) *domain.CatalogEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entities[accountID][level][id]
}

// Put upserts a single entity, used by the toggle confirm re-fetch.
func (s *CatalogStore) Put(accountID string, e *domain.CatalogEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAccount, ok := s.entities[accountID]
	if !ok {
		byAccount = make(map[domain.Level]map[string]*domain.CatalogEntity)
		s.entities[accountID] = byAccount
	}
	byID, ok := byAccount[e.Level]
	if !ok {
		byID = make(map[string]*domain.CatalogEntity)
		byAccount[e.Level] = byID
	}
	byID[e.ID] = e
}

// ByLevel lists entities at a level, optionally filtered by parent id.
func (s *CatalogStore) ByLevel(accountID string, level domain.Level, parentID string) []*domain.CatalogEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.entities[accountID][level]
	out := make([]*domain.CatalogEntity, 0, len(byID))
	for _, e := range byID {
		if parentID != "" && e.ParentID != parentID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ChildrenOf lists the direct children of an entity.
func (s *CatalogStore) ChildrenOf(accountID string, parent *domain.CatalogEntity) []*domain.CatalogEntity {
	child, ok := parent.Level.Child()
	if !ok {
		return nil
	}
	return s.ByLevel(accountID, child, parent.ID)
}

// ChildrenLoaded reports whether a campaign's ad set children have been
// synced at least once.
func (s *CatalogStore) ChildrenLoaded(accountID, campaignID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.childrenLoaded[accountID][campaignID]
}

// ClearAccount drops every cached entity of an account.
func (s *CatalogStore) ClearAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entities, accountID)
	delete(s.childrenLoaded, accountID)
}

// Override is one optimistic status entry, layered on top of the catalog and
// never persisted into it. Seq orders toggles on the same entity: a newer
// toggle supersedes a pending one's optimistic value.
type Override struct {
	IntendedActive bool
	At             time.Time
	Seq            uint64
}

// OverrideStore holds the optimistic status overrides written by user
// toggles. Entries are only removed through Clear, once the caller decides
// reconciliation is complete, never automatically.
type OverrideStore struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]Override
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{entries: make(map[string]Override)}
}

// Set writes an optimistic entry and returns it, including the sequence
// number the caller needs for a guarded Clear.
func (s *OverrideStore) Set(entityID string, intendedActive bool) Override {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ov := Override{IntendedActive: intendedActive, At: time.Now(), Seq: s.seq}
	s.entries[entityID] = ov
	return ov
}

func (s *OverrideStore) Get(entityID string) (Override, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov, ok := s.entries[entityID]
	return ov, ok
}

// Clear removes the override only if it still carries the given sequence
// number, so a confirm for an old toggle never wipes a newer one.
func (s *OverrideStore) Clear(entityID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov, ok := s.entries[entityID]
	if !ok || ov.Seq != seq {
		return false
	}
	delete(s.entries, entityID)
	return true
}
