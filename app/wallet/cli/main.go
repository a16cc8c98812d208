package main

import "github.com/scremy/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
