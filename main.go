// Package main prints the usage of mempoolsim, a model of the MemPool tile
// response arbiter built on Akita. The simulator itself is the mpsim
// command: go run ./cmd/mpsim.
package main

import (
	"os"

	"github.com/sarchlab/mempoolsim/cli"
)

func main() {
	root := cli.NewRootCmd()
	root.SetOut(os.Stdout)

	if err := root.Usage(); err != nil {
		os.Exit(1)
	}
}
