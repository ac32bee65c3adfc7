package main

import "github.com/gleeworld/gleeworld/cmd"

func main() {
	cmd.Execute()
}
