// Command gotcs drives a TCS thermal stimulator from the command line and
// generates protocol files for its control console.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
