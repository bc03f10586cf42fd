package main

import "github.com/Is-Prog22/fastandtrust/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
