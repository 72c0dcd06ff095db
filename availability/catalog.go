package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// FullPackage is the import path the full backend announces from its init.
const FullPackage = "github.com/adrianmcphee/crossbase/full"

// ErrMalformedPackage is wrapped by ProbeError for unusable package paths.
var ErrMalformedPackage = errors.New("malformed package path")

// ProbeError reports a probe that could not determine presence. Resolvers
// absorb it and treat the package as absent.
type ProbeError struct {
	Package string
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %q: %v", e.Package, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Catalog records which optional packages were linked into the binary.
// Packages call Announce from init; Lookup never imports or initializes
// anything, so asking is free of side effects.
type Catalog struct {
	mu        sync.RWMutex
	announced map[string]struct{}
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{announced: make(map[string]struct{})}
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Announce records pkg as present. It panics on a malformed path, since it is
// only called from init with a constant.
func Announce(pkg string) { defaultCatalog.Announce(pkg) }

// Announce records pkg as present.
func (c *Catalog) Announce(pkg string) {
	if err := validatePackage(pkg); err != nil {
		panic(&ProbeError{Package: pkg, Err: err})
	}
	c.mu.Lock()
	c.announced[pkg] = struct{}{}
	c.mu.Unlock()
}

// Lookup reports whether pkg was announced. A malformed path yields a
// *ProbeError rather than false, so callers can tell the two apart.
func (c *Catalog) Lookup(pkg string) (bool, error) {
	if err := validatePackage(pkg); err != nil {
		return false, &ProbeError{Package: pkg, Err: err}
	}
	c.mu.RLock()
	_, ok := c.announced[pkg]
	c.mu.RUnlock()
	return ok, nil
}

// Installed lists announced packages, sorted.
func (c *Catalog) Installed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.announced))
	for pkg := range c.announced {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

func validatePackage(pkg string) error {
	if pkg == "" {
		return fmt.Errorf("%w: empty", ErrMalformedPackage)
	}
	if strings.HasPrefix(pkg, "/") || strings.HasSuffix(pkg, "/") || strings.Contains(pkg, "//") {
		return fmt.Errorf("%w: %q has an empty element", ErrMalformedPackage, pkg)
	}
	for _, r := range pkg {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) || strings.ContainsRune(`"'\:*?<>|`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrMalformedPackage, pkg, r)
		}
	}
	return nil
}
