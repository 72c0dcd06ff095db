package full

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/internal/history"
	"github.com/adrianmcphee/crossbase/internal/store"
	"github.com/adrianmcphee/crossbase/schema"
)

const messagePrefix = "messages"

func messageKey(id string) (string, error) {
	if err := history.ValidateID(id); err != nil {
		return "", err
	}
	return messagePrefix + "/" + id + ".json", nil
}

func indexEntries(m *Message) []store.IndexEntry {
	return []store.IndexEntry{
		{Name: schema.FieldSessionID, Value: m.SessionID},
		{Name: schema.FieldFlowID, Value: m.FlowID},
	}
}

// AddMessages persists copies of msgs, assigning ids and timestamps where
// missing. Every message is validated before anything is written.
func (s *Service) AddMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	converted, err := convertAll(msgs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, m := range converted {
		history.Stamp(&m.ID, &m.Timestamp, now)
		if _, err := messageKey(m.ID); err != nil {
			return nil, err
		}
	}
	if err := s.write(ctx, converted); err != nil {
		return nil, err
	}
	s.logger.Debug("messages added", "count", len(converted))
	return records(converted), nil
}

// write stores each message and indexes it, fanning out across the batch.
func (s *Service) write(ctx context.Context, msgs []*Message) error {
	st, idx, err := s.handles(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout())
	for _, m := range msgs {
		g.Go(func() error {
			key, err := messageKey(m.ID)
			if err != nil {
				return err
			}
			if err := st.PutJSON(gctx, key, m); err != nil {
				return err
			}
			return idx.Add(gctx, key, indexEntries(m)...)
		})
	}
	return g.Wait()
}

// GetMessages loads the messages matching q. Session and flow filters use
// the Redis index when one is configured and fall back to a listing.
func (s *Service) GetMessages(ctx context.Context, q capability.MessageQuery) ([]schema.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	st, idx, err := s.handles(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := s.candidateKeys(ctx, st, idx, q)
	if err != nil {
		return nil, err
	}
	msgs, err := s.load(ctx, st, keys)
	if err != nil {
		return nil, err
	}

	// UUIDv7 ids sort by creation, which orders equal timestamps.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	entries := make([]history.Entry[*Message], len(msgs))
	for i, m := range msgs {
		entries[i] = history.Entry[*Message]{Msg: m, Seq: uint64(i)}
	}

	selected, err := history.Select(entries, q, func(m *Message) time.Time { return m.Timestamp })
	if err != nil {
		return nil, err
	}
	s.metrics.Histogram(crossbase.MetricQueryResults, float64(len(selected)), "backend", Backend)
	return records(selected), nil
}

func (s *Service) candidateKeys(ctx context.Context, st *store.Store, idx *store.SessionIndex, q capability.MessageQuery) ([]string, error) {
	var name, value string
	switch {
	case q.SessionID != "":
		name, value = schema.FieldSessionID, q.SessionID
	case q.FlowID != "":
		name, value = schema.FieldFlowID, q.FlowID
	}
	if name != "" && idx.Enabled() {
		keys, err := idx.Query(ctx, name, value)
		if err == nil {
			return keys, nil
		}
		s.logger.Warn("session index query failed, listing messages", "index", name, "error", err)
	}
	return st.List(ctx, messagePrefix)
}

// load reads keys concurrently. Keys whose document disappeared are skipped.
func (s *Service) load(ctx context.Context, st *store.Store, keys []string) ([]*Message, error) {
	slots := make([]*Message, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout())
	for i, key := range keys {
		g.Go(func() error {
			var m Message
			if err := st.GetJSON(gctx, key, &m); err != nil {
				if crossbase.IsNotFound(err) {
					s.logger.Debug("indexed message missing", "key", key)
					return nil
				}
				return err
			}
			slots[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]*Message, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// StoreMessage updates msg when its id is already stored and adds it
// otherwise. session_id, sender and sender_name are required.
func (s *Service) StoreMessage(ctx context.Context, msg schema.Record) (schema.Record, error) {
	if err := history.RequireStorable(msg); err != nil {
		return nil, err
	}
	if id, _ := schema.Get[string](msg, schema.FieldID); id != "" {
		key, err := messageKey(id)
		if err != nil {
			return nil, err
		}
		st, _, err := s.handles(ctx)
		if err != nil {
			return nil, err
		}
		exists, err := st.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if exists {
			updated, err := s.UpdateMessages(ctx, []schema.Record{msg})
			if err != nil {
				return nil, err
			}
			return updated[0], nil
		}
	}
	added, err := s.AddMessages(ctx, []schema.Record{msg})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// UpdateMessages replaces stored messages by id. Every id must already be
// stored; otherwise nothing is written.
func (s *Service) UpdateMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	converted, err := convertAll(msgs)
	if err != nil {
		return nil, err
	}
	st, idx, err := s.handles(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range converted {
		key, err := messageKey(m.ID)
		if err != nil {
			return nil, err
		}
		exists, err := st.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			s.logger.Warn("message not found for update", "id", m.ID)
			return nil, crossbase.WithContext(
				fmt.Errorf("%w: message with id %q", crossbase.ErrNotFound, m.ID),
				map[string]interface{}{"id": m.ID},
			)
		}
	}

	out := make([]*Message, len(converted))
	for i, m := range converted {
		key, _ := messageKey(m.ID)
		var previous []store.IndexEntry
		saved, err := store.Update(ctx, st, key, func(cur *Message) error {
			previous = indexEntries(cur)
			ts := cur.Timestamp
			*cur = *m
			if cur.Timestamp.IsZero() {
				cur.Timestamp = ts
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := idx.Remove(ctx, key, previous...); err != nil {
			return nil, err
		}
		if err := idx.Add(ctx, key, indexEntries(&saved)...); err != nil {
			return nil, err
		}
		out[i] = &saved
	}
	return records(out), nil
}

// DeleteMessages removes every message of a session.
func (s *Service) DeleteMessages(ctx context.Context, sessionID string) error {
	if err := history.RequireSession(sessionID); err != nil {
		return err
	}
	st, idx, err := s.handles(ctx)
	if err != nil {
		return err
	}
	keys, err := s.candidateKeys(ctx, st, idx, capability.MessageQuery{SessionID: sessionID})
	if err != nil {
		return err
	}
	msgs, err := s.load(ctx, st, keys)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout())
	for _, m := range msgs {
		if m.SessionID != sessionID {
			continue
		}
		g.Go(func() error { return s.remove(gctx, st, idx, m) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return idx.Drop(ctx, schema.FieldSessionID, sessionID)
}

// DeleteMessage removes one message. Deleting an unknown id is not an error.
func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	key, err := messageKey(id)
	if err != nil {
		return err
	}
	st, idx, err := s.handles(ctx)
	if err != nil {
		return err
	}
	var m Message
	if err := st.GetJSON(ctx, key, &m); err != nil {
		if crossbase.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.remove(ctx, st, idx, &m)
}

func (s *Service) remove(ctx context.Context, st *store.Store, idx *store.SessionIndex, m *Message) error {
	key, err := messageKey(m.ID)
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, key); err != nil && !crossbase.IsNotFound(err) {
		return err
	}
	return idx.Remove(ctx, key, indexEntries(m)...)
}

// MemoryOps returns the memory group bound to s.
func (s *Service) MemoryOps() capability.MemoryOps {
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

func records(msgs []*Message) []schema.Record {
	out := make([]schema.Record, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}
