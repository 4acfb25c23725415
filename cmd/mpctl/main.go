package main

import "github.com/mcoot/mpcoord/internal/cli"

func main() {
	cli.Execute()
}
