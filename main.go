package main

import "github.com/kozaktomas/photo-migrate/cmd"

func main() {
	cmd.Execute()
}
