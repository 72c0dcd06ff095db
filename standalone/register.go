package standalone

import (
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
)

var defaultStore = NewMemoryStore()

// DefaultStore returns the process-wide store behind the memory group.
func DefaultStore() *MemoryStore { return defaultStore }

func init() {
	router.Provide(router.Standalone, capability.Memory.Name, capability.MemoryNamespace(defaultStore.Ops()))
	router.Provide(router.Standalone, capability.Helpers.Name, capability.HelpersNamespace(HelpersOps()))
}
