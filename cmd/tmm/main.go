// Command tmm manages TERA client mods by redirecting entries of the
// encrypted composite package mapper.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func run() error {
	return newRootCmd(newApp(os.Stderr)).ExecuteContext(context.Background())
}
