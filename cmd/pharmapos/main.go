package main

import "github.com/eczanelab/pharmapos/internal/cli"

func main() {
	cli.Execute()
}
