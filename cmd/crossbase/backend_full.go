//go:build !standalone

package main

import (
	"github.com/spf13/cobra"

	"github.com/adrianmcphee/crossbase/full"
)

const edition = "full"

func init() {
	backendHooks = hooks{
		linked:    true,
		configure: full.Configure,
		close:     full.Close,
		commands:  []func(*app) *cobra.Command{newIndexCmd},
	}
}
