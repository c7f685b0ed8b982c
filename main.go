package main

import "github.com/kamusis/imgrepo-cli/cmd"

func main() {
	cmd.Execute()
}
