package main

import "github.com/ceoloide/kicad-kbplacer/internal/cli"

func main() {
	cli.Execute()
}
