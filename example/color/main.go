// color echoes its arguments in a handful of ANSI styles. It is a cheap stand-in for a
// search command when trying out the terminal UI:
//
//	settle search -- go run ./example/color {query}
package main

import (
	"fmt"
	"os"
	"strings"
)

const reset = "\033[0m"

var styles = []string{
	"\033[31m",      // red
	"\033[32m",      // green
	"\033[33m",      // yellow
	"\033[34m",      // blue
	"\033[35m",      // magenta
	"\033[41;37m",   // white on red
	"\033[1;33;46m", // bold yellow on cyan
	"\033[1;37;44m", // bold white on blue
	"\033[30;103m",  // black on bright yellow
}

func main() {
	query := strings.Join(os.Args[1:], " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "nothing to color")
		os.Exit(1)
	}
	for i, style := range styles {
		fmt.Printf("%d %s%s%s\n", i, style, query, reset)
	}
}
