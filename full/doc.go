// Package full is the persistence-backed backend. Linking it announces it to
// the availability catalog, so the default router binds every capability
// group to it:
//
//	import _ "github.com/adrianmcphee/crossbase/full"
//
// Messages are JSON documents under messages/<id>.json in the configured
// object store (filesystem, S3 or GCS), optionally encrypted at rest and
// indexed by session and flow in Redis. Flows are read from
// flows/<id>.json. Storage is opened on the first operation from
// crossbase.LoadConfig, or from the configuration passed to Configure.
//
// The auth group seals sensitive settings values with AES-256-GCM under
// CROSSBASE_SECRET_KEY.
package full
