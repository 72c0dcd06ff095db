// Package standalone is the in-process backend. It declares lean Data and
// Message types, keeps message history in memory and registers the memory
// and helpers capability groups with the router's default registry.
//
// Every binary links it through the memory and helpers facades, so the
// capability groups always have somewhere to fall back to:
//
//	import "github.com/adrianmcphee/crossbase/memory"
//
//	msg := standalone.NewMessage("hi", "User", "ann", "session-1")
//	stored, err := memory.AddMessages(ctx, []schema.Record{msg})
//
// It provides no auth group.
package standalone
