// Command groupd groups runs of consecutive NDJSON records that share a key,
// either as an HTTP service or over standard input.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
