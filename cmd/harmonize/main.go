// Command harmonize runs the harmonizer and the SATB voice-leading solver
// from the terminal.
//
// Usage:
//
//	harmonize [flags] <command> [args]
//
// Commands:
//
//	melody    - choose chords for a melody
//	voicelead - voice a chord progression in four parts
//	arrange   - harmonize a melody, then voice the chords
//	profile   - print the effective cost profile
package main

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/magda-harmony/cmd/harmonize/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
