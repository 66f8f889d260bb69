package storage

import (
	"fmt"
	"strings"
	"sync"

	"conversation-recall/pkg/models"
)

// PersonStore is the durable record of people and their conversation
// history. Store is an idempotent upsert: submitting the same record twice
// must not duplicate conversation entries beyond explicit appends.
type PersonStore interface {
	Get(idOrName string) (*models.PersonRecord, error)
	FindByName(name string) (*models.PersonRecord, error)
	Store(record *models.PersonRecord) error
	List() ([]*models.PersonRecord, error)
}

var ErrPersonNotFound = fmt.Errorf("person not found")

type memoryStore struct {
	people map[string]*models.PersonRecord
	mu     sync.RWMutex
}

func NewMemoryStore() PersonStore {
	return &memoryStore{
		people: make(map[string]*models.PersonRecord),
	}
}

func (s *memoryStore) Get(idOrName string) (*models.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.people[idOrName]; exists {
		return cloneRecord(record), nil
	}
	return s.findByNameLocked(idOrName)
}

func (s *memoryStore) FindByName(name string) (*models.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByNameLocked(name)
}

func (s *memoryStore) findByNameLocked(name string) (*models.PersonRecord, error) {
	for _, record := range s.people {
		if strings.EqualFold(record.Name, name) {
			return cloneRecord(record), nil
		}
	}
	return nil, ErrPersonNotFound
}

func (s *memoryStore) Store(record *models.PersonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.people[record.ID]; exists {
		s.people[record.ID] = mergeRecords(existing, record)
		return nil
	}
	s.people[record.ID] = cloneRecord(record)
	return nil
}

func (s *memoryStore) List() ([]*models.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]*models.PersonRecord, 0, len(s.people))
	for _, record := range s.people {
		people = append(people, cloneRecord(record))
	}
	return people, nil
}

func cloneRecord(record *models.PersonRecord) *models.PersonRecord {
	clone := *record
	clone.Conversations = append([]models.ConversationEntry(nil), record.Conversations...)
	clone.Fingerprint = append([]byte(nil), record.Fingerprint...)
	return &clone
}

// mergeRecords upserts incoming over existing. Conversation history is
// append-only: incoming entries already present on the existing record are
// not duplicated.
func mergeRecords(existing, incoming *models.PersonRecord) *models.PersonRecord {
	merged := cloneRecord(existing)
	merged.Name = incoming.Name
	merged.SpeakerID = incoming.SpeakerID
	if len(incoming.Fingerprint) > 0 {
		merged.Fingerprint = append([]byte(nil), incoming.Fingerprint...)
	}
	if incoming.LastMet.After(merged.LastMet) {
		merged.LastMet = incoming.LastMet
	}
	for _, entry := range incoming.Conversations {
		if !containsEntry(merged.Conversations, entry) {
			merged.Conversations = append(merged.Conversations, entry)
		}
	}
	return merged
}

func containsEntry(entries []models.ConversationEntry, entry models.ConversationEntry) bool {
	for _, e := range entries {
		if e.Date.Equal(entry.Date) && e.Summary == entry.Summary {
			return true
		}
	}
	return false
}
