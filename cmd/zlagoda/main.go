package main

import (
	"fmt"
	"os"

	"zlagoda_console/internal"
)

func main() {
	if err := internal.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
