package main

import "github.com/opencode-ai/tint/internal/cli"

func main() {
	cli.Execute()
}
