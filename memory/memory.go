// Package memory is the message-history facade. Each call dispatches to the
// backend the router bound the memory group to: the full backend when it is
// linked and complete, the standalone backend otherwise.
package memory

import (
	"context"

	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"

	// The standalone backend is always linked as the fallback.
	_ "github.com/adrianmcphee/crossbase/standalone"
)

var facade = router.NewFacade(capability.Memory, capability.DecodeMemory)

// Facade returns the handle on the memory group.
func Facade() *router.Facade[capability.MemoryOps] { return facade }

// Backend reports which backend serves the memory group.
func Backend() router.Backend { return facade.Backend() }

// AddMessages stores msgs and returns the serving backend's copies.
func AddMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	ops, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return ops.AddMessages(ctx, msgs)
}

func AddMessagesAsync(ctx context.Context, msgs []schema.Record) *capability.Future[[]schema.Record] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved[[]schema.Record](nil, err)
	}
	return ops.AddMessagesAsync(ctx, msgs)
}

// GetMessages returns the stored messages matching q.
func GetMessages(ctx context.Context, q capability.MessageQuery) ([]schema.Record, error) {
	ops, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return ops.GetMessages(ctx, q)
}

func GetMessagesAsync(ctx context.Context, q capability.MessageQuery) *capability.Future[[]schema.Record] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved[[]schema.Record](nil, err)
	}
	return ops.GetMessagesAsync(ctx, q)
}

// StoreMessage adds msg, or updates it when its id is already stored.
func StoreMessage(ctx context.Context, msg schema.Record) (schema.Record, error) {
	ops, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return ops.StoreMessage(ctx, msg)
}

func StoreMessageAsync(ctx context.Context, msg schema.Record) *capability.Future[schema.Record] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved[schema.Record](nil, err)
	}
	return ops.StoreMessageAsync(ctx, msg)
}

// UpdateMessages replaces stored messages by id.
func UpdateMessages(ctx context.Context, msgs []schema.Record) ([]schema.Record, error) {
	ops, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return ops.UpdateMessages(ctx, msgs)
}

func UpdateMessagesAsync(ctx context.Context, msgs []schema.Record) *capability.Future[[]schema.Record] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved[[]schema.Record](nil, err)
	}
	return ops.UpdateMessagesAsync(ctx, msgs)
}

// DeleteMessages removes every message of a session.
func DeleteMessages(ctx context.Context, sessionID string) error {
	ops, err := facade.Get()
	if err != nil {
		return err
	}
	return ops.DeleteMessages(ctx, sessionID)
}

func DeleteMessagesAsync(ctx context.Context, sessionID string) *capability.Future[struct{}] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved(struct{}{}, err)
	}
	return ops.DeleteMessagesAsync(ctx, sessionID)
}

// DeleteMessage removes one message by id.
func DeleteMessage(ctx context.Context, id string) error {
	ops, err := facade.Get()
	if err != nil {
		return err
	}
	return ops.DeleteMessage(ctx, id)
}

func DeleteMessageAsync(ctx context.Context, id string) *capability.Future[struct{}] {
	ops, err := facade.Get()
	if err != nil {
		return capability.Resolved(struct{}{}, err)
	}
	return ops.DeleteMessageAsync(ctx, id)
}
