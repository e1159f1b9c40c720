package main

import (
	"os"
	sys "os"
)

func main() {
	os.Exit(1) // want "avoid using os.Exit in main.main"

	defer func() {
		sys.Exit(2) // want "avoid using os.Exit in main.main"
	}()
}

func helper() {
	os.Exit(3)
}
