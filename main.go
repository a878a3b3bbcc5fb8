package main

import "github.com/karvell/temurin-updater/cmd"

func main() {
	cmd.Execute()
}
