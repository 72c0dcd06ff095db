package full

import (
	"github.com/adrianmcphee/crossbase/availability"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
)

func init() {
	availability.Announce(availability.FullPackage)

	router.Provide(router.Full, capability.Memory.Name, capability.MemoryNamespace(defaultService.MemoryOps()))
	router.Provide(router.Full, capability.Helpers.Name, capability.HelpersNamespace(defaultService.HelpersOps()))
	router.Provide(router.Full, capability.Auth.Name, capability.AuthNamespace(defaultService.AuthOps()))
}
