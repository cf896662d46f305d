package main

import "github.com/tsqlspec/tsqlspec/cmd"

func main() {
	cmd.Execute()
}
