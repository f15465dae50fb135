package main

import "makerchecker-backend/commands"

func main() {
	commands.Execute()
}
