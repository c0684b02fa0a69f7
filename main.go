package main

import "mspro-labs/bean-scout/cmd"

func main() {
	cmd.Execute()
}
