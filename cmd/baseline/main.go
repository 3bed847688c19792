// Command baseline is a reference program-under-test: it prints "0" and
// exits 0 when its argument names a file holding valid JSON, and prints
// "1" and exits 1 otherwise.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: baseline <file>")
		return 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "baseline: %v\n", err)
		fmt.Fprint(stdout, "1")
		return 1
	}

	if !json.Valid(data) {
		fmt.Fprint(stdout, "1")
		return 1
	}
	fmt.Fprint(stdout, "0")
	return 0
}
