package main

import "github.com/jgwest/restic-runner/cmd"

func main() {
	cmd.Execute()
}
