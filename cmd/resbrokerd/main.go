// Command resbrokerd runs the resource broker as a standalone daemon: it
// initializes a broker.Host from configuration and exposes a read-only
// status surface over HTTP while sessions are driven out-of-process by
// whatever embeds the broker library over its own transport.
package main

import (
	"fmt"
	"os"

	"github.com/deviceflow/resbroker/cmd/resbrokerd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
