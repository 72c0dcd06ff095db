package capability

import "github.com/adrianmcphee/crossbase/router"

const (
	SymEncryptSettings = "EncryptSettings"
	SymDecryptSettings = "DecryptSettings"
)

// Auth is the settings-encryption capability group. Only the full backend
// provides it.
var Auth = router.Group{
	Name:    "auth",
	Version: 1,
	Symbols: []string{SymEncryptSettings, SymDecryptSettings},
}

// SettingsFunc transforms an auth settings document. Implementations return
// a new map and leave the input untouched.
type SettingsFunc = func(settings map[string]any) (map[string]any, error)

// AuthOps is the decoded auth group.
type AuthOps struct {
	EncryptSettings SettingsFunc
	DecryptSettings SettingsFunc
}

// DecodeAuth decodes every auth symbol from ns.
func DecodeAuth(ns router.Namespace) (AuthOps, error) {
	var ops AuthOps
	d := decoder{ns: ns}
	ops.EncryptSettings = lookup[SettingsFunc](&d, SymEncryptSettings)
	ops.DecryptSettings = lookup[SettingsFunc](&d, SymDecryptSettings)
	return ops, d.err()
}

// AuthNamespace builds the auth namespace from a backend's operations.
func AuthNamespace(ops AuthOps) router.Namespace {
	return router.Namespace{
		SymEncryptSettings: ops.EncryptSettings,
		SymDecryptSettings: ops.DecryptSettings,
	}
}
