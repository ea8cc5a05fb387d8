package main

import "github.com/frahmantamala/tasktracker/cmd"

func main() {
	cmd.Execute()
}
