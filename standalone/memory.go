package standalone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/internal/history"
	"github.com/adrianmcphee/crossbase/schema"
)

// MemoryStore keeps message history in process memory. Its contents are lost
// when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]history.Entry[*Message]
	seq     uint64
	now     func() time.Time
	logger  crossbase.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]history.Entry[*Message]),
		now:     time.Now,
		logger:  crossbase.Log(),
	}
}

// Len returns the number of stored messages.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AddMessages stores copies of msgs, assigning ids and timestamps where
// missing. Nothing is stored unless every message is valid.
func (s *MemoryStore) AddMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := convertAll(msgs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, m := range converted {
		history.Stamp(&m.ID, &m.Timestamp, now)
		if err := history.ValidateID(m.ID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schema.Record, len(converted))
	for i, m := range converted {
		s.put(m)
		out[i] = m.clone()
	}
	s.logger.Debug("messages added", "count", len(out))
	return out, nil
}

// put stores m under its id, keeping the original sequence on overwrite.
// Callers hold the write lock.
func (s *MemoryStore) put(m *Message) {
	if prev, ok := s.entries[m.ID]; ok {
		s.entries[m.ID] = history.Entry[*Message]{Msg: m, Seq: prev.Seq}
		return
	}
	s.seq++
	s.entries[m.ID] = history.Entry[*Message]{Msg: m, Seq: s.seq}
}

// GetMessages returns copies of the messages matching q.
func (s *MemoryStore) GetMessages(ctx context.Context, q capability.MessageQuery) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]history.Entry[*Message], 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	selected, err := history.Select(entries, q, func(m *Message) time.Time { return m.Timestamp })
	if err != nil {
		return nil, err
	}
	out := make([]schema.Record, len(selected))
	for i, m := range selected {
		out[i] = m.clone()
	}
	return out, nil
}

// StoreMessage updates msg in place when its id is already stored and adds
// it otherwise. session_id, sender and sender_name are required.
func (s *MemoryStore) StoreMessage(ctx context.Context, msg schema.Record) (schema.Record, error) {
	if err := history.RequireStorable(msg); err != nil {
		return nil, err
	}
	id, _ := schema.Get[string](msg, schema.FieldID)
	if id != "" {
		if err := history.ValidateID(id); err != nil {
			return nil, err
		}
	}
	if id != "" && s.has(id) {
		updated, err := s.UpdateMessages(ctx, []schema.Record{msg})
		if err != nil {
			return nil, err
		}
		return updated[0], nil
	}
	added, err := s.AddMessages(ctx, []schema.Record{msg})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

func (s *MemoryStore) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// UpdateMessages replaces stored messages by id. Every id must already be
// stored; otherwise nothing changes.
func (s *MemoryStore) UpdateMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := convertAll(msgs)
	if err != nil {
		return nil, err
	}

	for _, m := range converted {
		if err := history.ValidateID(m.ID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range converted {
		if _, ok := s.entries[m.ID]; !ok {
			s.logger.Warn("message not found for update", "id", m.ID)
			return nil, crossbase.WithContext(
				fmt.Errorf("%w: message with id %q", crossbase.ErrNotFound, m.ID),
				map[string]interface{}{"id": m.ID},
			)
		}
	}

	out := make([]schema.Record, len(converted))
	for i, m := range converted {
		if m.Timestamp.IsZero() {
			m.Timestamp = s.entries[m.ID].Msg.Timestamp
		}
		s.put(m)
		out[i] = m.clone()
	}
	return out, nil
}

// DeleteMessages removes every message of a session.
func (s *MemoryStore) DeleteMessages(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := history.RequireSession(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.Msg.SessionID == sessionID {
			delete(s.entries, id)
			removed++
		}
	}
	s.logger.Debug("session messages deleted", "session_id", sessionID, "count", removed)
	return nil
}

// DeleteMessage removes one message. Deleting an unknown id is not an error.
func (s *MemoryStore) DeleteMessage(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := history.ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Ops returns the memory group bound to s, async forms included.
func (s *MemoryStore) Ops() capability.MemoryOps {
	return capability.WithAsync(capability.MemoryOps{
		AddMessages:    s.AddMessages,
		GetMessages:    s.GetMessages,
		StoreMessage:   s.StoreMessage,
		UpdateMessages: s.UpdateMessages,
		DeleteMessages: s.DeleteMessages,
		DeleteMessage:  s.DeleteMessage,
	})
}

func convertAll(msgs []schema.Record) ([]*Message, error) {
	if err := history.CheckMessages(msgs); err != nil {
		return nil, err
	}
	out := make([]*Message, len(msgs))
	for i, rec := range msgs {
		m, err := toMessage(rec)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}
