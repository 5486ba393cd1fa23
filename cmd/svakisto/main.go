// Command svakisto organizes remote-desktop shortcuts.
package main

import "github.com/mesh-intelligence/svakisto/internal/cli"

func main() {
	cli.Execute()
}
