package main

import "github.com/mcoot/faceit-ledger/internal/cli"

func main() {
	cli.Execute()
}
