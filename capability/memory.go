package capability

import (
	"context"
	"errors"

	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

// Memory symbol names.
const (
	SymAddMessages         = "AddMessages"
	SymAddMessagesAsync    = "AddMessagesAsync"
	SymGetMessages         = "GetMessages"
	SymGetMessagesAsync    = "GetMessagesAsync"
	SymStoreMessage        = "StoreMessage"
	SymStoreMessageAsync   = "StoreMessageAsync"
	SymUpdateMessages      = "UpdateMessages"
	SymUpdateMessagesAsync = "UpdateMessagesAsync"
	SymDeleteMessages      = "DeleteMessages"
	SymDeleteMessagesAsync = "DeleteMessagesAsync"
	SymDeleteMessage       = "DeleteMessage"
	SymDeleteMessageAsync  = "DeleteMessageAsync"
)

// Memory is the message-history capability group.
var Memory = router.Group{
	Name:    "memory",
	Version: 1,
	Symbols: []string{
		SymAddMessages, SymAddMessagesAsync,
		SymGetMessages, SymGetMessagesAsync,
		SymStoreMessage, SymStoreMessageAsync,
		SymUpdateMessages, SymUpdateMessagesAsync,
		SymDeleteMessages, SymDeleteMessagesAsync,
		SymDeleteMessage, SymDeleteMessageAsync,
	},
}

// Sort orders for MessageQuery.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// ErrInvalidQuery is returned for queries with an unknown order.
var ErrInvalidQuery = errors.New("invalid message query")

// MessageQuery filters stored messages. Zero-valued filters match anything.
type MessageQuery struct {
	Sender     string
	SenderName string
	SessionID  string
	FlowID     string
	// Order sorts by timestamp, OrderAsc when empty.
	Order string
	// Limit caps the result; zero means no limit.
	Limit int
}

// Validate checks the query's order and limit.
func (q MessageQuery) Validate() error {
	switch q.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return errors.Join(ErrInvalidQuery, errors.New("order must be ASC or DESC"))
	}
	if q.Limit < 0 {
		return errors.Join(ErrInvalidQuery, errors.New("limit must be non-negative"))
	}
	return nil
}

// Descending reports whether the query sorts newest first.
func (q MessageQuery) Descending() bool { return q.Order == OrderDesc }

// Matches reports whether msg passes the query's filters.
func (q MessageQuery) Matches(msg schema.Record) bool {
	for field, want := range map[string]string{
		schema.FieldSender:     q.Sender,
		schema.FieldSenderName: q.SenderName,
		schema.FieldSessionID:  q.SessionID,
		schema.FieldFlowID:     q.FlowID,
	} {
		if want == "" {
			continue
		}
		if got, _ := schema.Get[string](msg, field); got != want {
			return false
		}
	}
	return true
}

// Memory operation signatures. Records passed in may come from either
// backend; results are the serving backend's own Message values.
type (
	AddMessagesFunc    = func(ctx context.Context, msgs []schema.Record) ([]schema.Record, error)
	GetMessagesFunc    = func(ctx context.Context, q MessageQuery) ([]schema.Record, error)
	StoreMessageFunc   = func(ctx context.Context, msg schema.Record) (schema.Record, error)
	UpdateMessagesFunc = func(ctx context.Context, msgs []schema.Record) ([]schema.Record, error)
	DeleteMessagesFunc = func(ctx context.Context, sessionID string) error
	DeleteMessageFunc  = func(ctx context.Context, id string) error

	AddMessagesAsyncFunc    = func(ctx context.Context, msgs []schema.Record) *Future[[]schema.Record]
	GetMessagesAsyncFunc    = func(ctx context.Context, q MessageQuery) *Future[[]schema.Record]
	StoreMessageAsyncFunc   = func(ctx context.Context, msg schema.Record) *Future[schema.Record]
	UpdateMessagesAsyncFunc = func(ctx context.Context, msgs []schema.Record) *Future[[]schema.Record]
	DeleteMessagesAsyncFunc = func(ctx context.Context, sessionID string) *Future[struct{}]
	DeleteMessageAsyncFunc  = func(ctx context.Context, id string) *Future[struct{}]
)

// MemoryOps is the decoded memory group.
type MemoryOps struct {
	AddMessages         AddMessagesFunc
	AddMessagesAsync    AddMessagesAsyncFunc
	GetMessages         GetMessagesFunc
	GetMessagesAsync    GetMessagesAsyncFunc
	StoreMessage        StoreMessageFunc
	StoreMessageAsync   StoreMessageAsyncFunc
	UpdateMessages      UpdateMessagesFunc
	UpdateMessagesAsync UpdateMessagesAsyncFunc
	DeleteMessages      DeleteMessagesFunc
	DeleteMessagesAsync DeleteMessagesAsyncFunc
	DeleteMessage       DeleteMessageFunc
	DeleteMessageAsync  DeleteMessageAsyncFunc
}

// DecodeMemory decodes every memory symbol from ns.
func DecodeMemory(ns router.Namespace) (MemoryOps, error) {
	var ops MemoryOps
	d := decoder{ns: ns}
	ops.AddMessages = lookup[AddMessagesFunc](&d, SymAddMessages)
	ops.AddMessagesAsync = lookup[AddMessagesAsyncFunc](&d, SymAddMessagesAsync)
	ops.GetMessages = lookup[GetMessagesFunc](&d, SymGetMessages)
	ops.GetMessagesAsync = lookup[GetMessagesAsyncFunc](&d, SymGetMessagesAsync)
	ops.StoreMessage = lookup[StoreMessageFunc](&d, SymStoreMessage)
	ops.StoreMessageAsync = lookup[StoreMessageAsyncFunc](&d, SymStoreMessageAsync)
	ops.UpdateMessages = lookup[UpdateMessagesFunc](&d, SymUpdateMessages)
	ops.UpdateMessagesAsync = lookup[UpdateMessagesAsyncFunc](&d, SymUpdateMessagesAsync)
	ops.DeleteMessages = lookup[DeleteMessagesFunc](&d, SymDeleteMessages)
	ops.DeleteMessagesAsync = lookup[DeleteMessagesAsyncFunc](&d, SymDeleteMessagesAsync)
	ops.DeleteMessage = lookup[DeleteMessageFunc](&d, SymDeleteMessage)
	ops.DeleteMessageAsync = lookup[DeleteMessageAsyncFunc](&d, SymDeleteMessageAsync)
	return ops, d.err()
}

// MemoryNamespace builds the memory namespace from a backend's operations.
// Backends pass this to router.Provide.
func MemoryNamespace(ops MemoryOps) router.Namespace {
	return router.Namespace{
		SymAddMessages:         ops.AddMessages,
		SymAddMessagesAsync:    ops.AddMessagesAsync,
		SymGetMessages:         ops.GetMessages,
		SymGetMessagesAsync:    ops.GetMessagesAsync,
		SymStoreMessage:        ops.StoreMessage,
		SymStoreMessageAsync:   ops.StoreMessageAsync,
		SymUpdateMessages:      ops.UpdateMessages,
		SymUpdateMessagesAsync: ops.UpdateMessagesAsync,
		SymDeleteMessages:      ops.DeleteMessages,
		SymDeleteMessagesAsync: ops.DeleteMessagesAsync,
		SymDeleteMessage:       ops.DeleteMessage,
		SymDeleteMessageAsync:  ops.DeleteMessageAsync,
	}
}

// WithAsync returns ops with every async form implemented by running the
// matching synchronous operation through Go.
func WithAsync(ops MemoryOps) MemoryOps {
	ops.AddMessagesAsync = func(ctx context.Context, msgs []schema.Record) *Future[[]schema.Record] {
		return Go(ctx, func(ctx context.Context) ([]schema.Record, error) { return ops.AddMessages(ctx, msgs) })
	}
	ops.GetMessagesAsync = func(ctx context.Context, q MessageQuery) *Future[[]schema.Record] {
		return Go(ctx, func(ctx context.Context) ([]schema.Record, error) { return ops.GetMessages(ctx, q) })
	}
	ops.StoreMessageAsync = func(ctx context.Context, msg schema.Record) *Future[schema.Record] {
		return Go(ctx, func(ctx context.Context) (schema.Record, error) { return ops.StoreMessage(ctx, msg) })
	}
	ops.UpdateMessagesAsync = func(ctx context.Context, msgs []schema.Record) *Future[[]schema.Record] {
		return Go(ctx, func(ctx context.Context) ([]schema.Record, error) { return ops.UpdateMessages(ctx, msgs) })
	}
	ops.DeleteMessagesAsync = func(ctx context.Context, sessionID string) *Future[struct{}] {
		return Go(ctx, func(ctx context.Context) (struct{}, error) { return struct{}{}, ops.DeleteMessages(ctx, sessionID) })
	}
	ops.DeleteMessageAsync = func(ctx context.Context, id string) *Future[struct{}] {
		return Go(ctx, func(ctx context.Context) (struct{}, error) { return struct{}{}, ops.DeleteMessage(ctx, id) })
	}
	return ops
}
