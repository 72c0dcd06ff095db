// Package crossbase holds what every backend and facade shares: sentinel
// errors, configuration, logging, metrics and message ids.
//
// The library lets one code base run against two backends. The full backend
// (package full) persists messages and flows in an object store, indexes
// them in Redis and encrypts auth settings. The standalone backend (package
// standalone) keeps history in memory and has no flow or auth support. Code
// calls the facades in packages memory and helpers; the router binds each
// capability group to the full backend when it is linked and complete, and
// to the standalone backend otherwise.
//
// # Selecting a backend
//
// Linking the full backend is a blank import:
//
//	import _ "github.com/adrianmcphee/crossbase/full"
//
// Its init announces the package to the availability catalog and registers
// its groups. Setting CROSSBASE_DISABLE_FULL keeps a linked full backend out
// of routing.
//
// # Configuration
//
// LoadConfig reads CROSSBASE_* variables (and REDIS_ADDR, REDIS_PASSWORD,
// REDIS_DB). The full backend loads it lazily on first use unless
// full.Configure was called.
//
// # Logging and metrics
//
// Log returns the process logger, a zap logger at CROSSBASE_LOG_LEVEL. Swap
// it with SetLogger or silence it with DisableLogging. Components take a
// Metrics; NewPrometheusMetrics exports them to a Prometheus registry.
//
// # Errors
//
// Operations return wrapped sentinels. Test them with errors.Is or the
// helpers:
//
//	if crossbase.IsNotSupported(err) {
//	    // flows are unavailable on the standalone backend
//	}
package crossbase
