package main

import "github.com/web3events/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
