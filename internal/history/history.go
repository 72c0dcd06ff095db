// Package history holds the message-history rules both backends apply on top
// of their own storage.
package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/schema"
)

// Entry is a stored message with the sequence number it was first written
// under, which breaks timestamp ties.
type Entry[T schema.Record] struct {
	Msg T
	Seq uint64
}

// Select filters entries through q, orders them by timestamp and applies the
// limit. stamp returns an entry's timestamp.
func Select[T schema.Record](entries []Entry[T], q capability.MessageQuery, stamp func(T) time.Time) ([]T, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	matched := make([]Entry[T], 0, len(entries))
	for _, e := range entries {
		if q.Matches(e.Msg) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := stamp(matched[i].Msg), stamp(matched[j].Msg)
		if !ti.Equal(tj) {
			if q.Descending() {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		if q.Descending() {
			return matched[i].Seq > matched[j].Seq
		}
		return matched[i].Seq < matched[j].Seq
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]T, len(matched))
	for i, e := range matched {
		out[i] = e.Msg
	}
	return out, nil
}

// CheckMessages verifies every record can stand in for a Message before a
// batch touches storage.
func CheckMessages(msgs []schema.Record) error {
	for i, m := range msgs {
		if err := schema.Check(m, schema.Message); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// RequireStorable checks the fields a stored message must carry.
func RequireStorable(msg schema.Record) error {
	if msg == nil {
		return crossbase.WithContext(
			fmt.Errorf("%w: no message to store", crossbase.ErrInvalidData), nil)
	}
	if err := schema.Check(msg, schema.Message); err != nil {
		return err
	}
	var missing []string
	for _, f := range []string{schema.FieldSessionID, schema.FieldSender, schema.FieldSenderName} {
		if v, _ := schema.Get[string](msg, f); v == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return crossbase.WithContext(
			fmt.Errorf("%w: session_id, sender and sender_name must be provided", crossbase.ErrInvalidData),
			map[string]interface{}{"missing": missing},
		)
	}
	return nil
}

// ValidateID rejects ids that cannot name a stored message: empty ids, path
// separators and the relative path names "." and "..". Both backends apply
// it so one input fails the same way on either.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return crossbase.WithContext(
			fmt.Errorf("%w: unusable message id %q", crossbase.ErrInvalidData, id),
			map[string]interface{}{"id": id},
		)
	}
	return nil
}

// RequireSession rejects an empty session id.
func RequireSession(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", crossbase.ErrInvalidData)
	}
	return nil
}

// Stamp fills a missing id and timestamp.
func Stamp(id *string, ts *time.Time, now time.Time) {
	if *id == "" {
		*id = crossbase.NewID()
	}
	if ts.IsZero() {
		*ts = now.UTC()
	}
}
