package main

import "simtl/cmd/simtl/cmd"

func main() {
	cmd.Execute()
}
