// Package main provides the mpsim command, which runs traffic scenarios
// through the MemPool tile response arbiter model.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/mempoolsim/cli"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	atexit.Exit(cli.Execute())
}
