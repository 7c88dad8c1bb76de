package main

import "github.com/chibuike-kt/bsc-custody-ledger/cmd/custody-cli/cmd"

func main() {
	cmd.Execute()
}
