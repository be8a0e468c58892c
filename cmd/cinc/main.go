// Command cinc wraps a game launch with a cloud save sync: it
// downloads the player's saves before the game starts and uploads
// whatever changed once it exits.
package main

import (
	"os"

	"github.com/0x00002a/cinc/pkg/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
