package main

import "github.com/kozaktomas/listing-builder/cmd"

func main() {
	cmd.Execute()
}
