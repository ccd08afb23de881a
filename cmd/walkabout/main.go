// Command walkabout is the CLI entry point for the session engine.
package main

import "github.com/fieldops/walkabout/internal/cli"

func main() {
	cli.Execute()
}
