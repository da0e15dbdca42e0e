package main

import (
	"os"

	"github.com/hashicorp-forge/uidcrack/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
