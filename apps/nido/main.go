package main

import "github.com/nidohq/nido-sync/internal/cli"

func main() {
	cli.Execute()
}
