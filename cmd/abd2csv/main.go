package main

import (
	"os"

	"github.com/FadliGr1/abd-to-csv/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
