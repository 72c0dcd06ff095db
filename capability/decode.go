package capability

import (
	"errors"

	"github.com/adrianmcphee/crossbase/router"
)

// decoder collects every symbol failure so a decode error names them all.
type decoder struct {
	ns   router.Namespace
	errs []error
}

func lookup[T any](d *decoder, symbol string) T {
	v, err := router.Lookup[T](d.ns, symbol)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	return v
}

func (d *decoder) err() error {
	return errors.Join(d.errs...)
}
