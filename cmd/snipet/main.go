// Command snipet posts code snippets to a snipet server from the terminal.
//
//	cat main.go | snipet --title "Graceful shutdown"
//	snipet login --email me@example.com --password secret
package main

import (
	"fmt"
	"os"

	"github.com/sakif/snipet/internal/session"
)

func main() {
	path, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	store, err := session.NewStore(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := newRootCmd(store).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
