package main

import (
	"os"

	"png-steganography/cli"
)

func main() {
	os.Exit(cli.Execute())
}
