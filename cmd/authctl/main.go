// Command authctl drives the goAuthClient engine from a terminal: request
// codes, sign up, log in, inspect and clear the local session.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
