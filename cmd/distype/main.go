// Command distype manages the distype chat, category and message store.
package main

import (
	"os"

	"github.com/distype/distype/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
