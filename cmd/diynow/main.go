package main

import "diynow/cmd/diynow/commands"

func main() {
	commands.Execute()
}
