/*
Package version exposes the build information of optionlab.

Fill it at link time with:
	-ldflags '-s -w \
	-X github.com/jwaldner/optionlab/cmd/version.Version=$(VERSION) \
	-X github.com/jwaldner/optionlab/cmd/version.Revision=$(REVISION)'
*/
package version

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	Package = "github.com/jwaldner/optionlab"

	// Version holds the complete version number. Filled in at linking time.
	Version = "0.0.0+unknown"

	// Revision is the VCS revision the binary was built from
	Revision = "+unknown"
)

// DisplayVersion writes the package/version/revision to w
func DisplayVersion(w io.Writer) {
	fmt.Fprintf(w, `package: %s
version: %s
revision: %s
go: %s
`, Package, Version, Revision, runtime.Version())
}

// NewCommand creates a command version
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:        "version",
		Short:      "Details about version, revision and compiler",
		SuggestFor: []string{"Version", "v", "V"},
		Args:       cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			DisplayVersion(cmd.OutOrStdout())
		},
	}
}
