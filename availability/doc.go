// Package availability answers, once per process, whether the full backend
// is present in the binary.
//
// The full package announces itself from init:
//
//	func init() { availability.Announce(availability.FullPackage) }
//
// so linking it (usually through a blank import) is what makes it present.
// The Resolver runs its Probe on first use, memoizes the verdict and never
// probes again. Probe errors are logged at warning level and treated as
// absence; they never reach callers.
package availability
