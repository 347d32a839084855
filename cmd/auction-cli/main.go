package main

import "auction-core/cmd/auction-cli/cmd"

func main() {
	cmd.Execute()
}
