package main

import "btcbeeper/cmd"

func main() {
	cmd.Execute()
}
