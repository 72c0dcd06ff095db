// Package router decides, per capability group, which backend serves it.
//
// Each backend provides one Namespace per group from its init:
//
//	router.Provide(router.Standalone, "memory", router.Namespace{
//		"AddMessages": AddMessages,
//		...
//	})
//
// On first use of a group the Router asks the availability resolver whether
// the full backend is present. If it is, every symbol of the group is decoded
// from the full namespace; a single missing or ill-typed symbol sends the
// whole group to the standalone backend. A group is never split across
// backends. If the standalone backend cannot supply it either, first use
// returns an *UnresolvableGroupError. Either outcome is kept for the
// router's lifetime.
package router
