package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fprochazka/slackcli/internal/cmd"
)

func main() {
	// A .env in the working directory can supply SLACKCLI_TOKEN.
	_ = godotenv.Load()
	os.Exit(cmd.Execute())
}
