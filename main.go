package main

import "github.com/ridoystarlord/erdkit/cmd"

func main() {
	cmd.Execute()
}
