// Command seatsync keeps seat availability of live events in sync with the
// ticketing API and serves it to UIs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seatsync:", err)
		os.Exit(1)
	}
}
