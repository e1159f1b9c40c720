package exitelsewhere

import "os"

func main() {
	os.Exit(1)
}

func Quit() {
	os.Exit(0)
}
