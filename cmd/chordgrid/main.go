// Command chordgrid creates, converts and stores chord grid documents.
//
// Usage:
//
//	chordgrid [flags] <command> [args]
//
// Commands:
//
//	new        - Create a song file
//	import     - Convert chord text files to song files
//	export     - Write a song as chord text, YAML, JSON, MIDI or a sheet
//	transpose  - Transpose the chords of a song
//	show       - Print a song as a table
//	watch      - Re-import a chord text file whenever it changes
//	recognize  - Read a chord chart from an image
//	lookup     - Look up the title and artist of a song URL
//	save, load, list, delete - Manage the song store
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/vsariola/chordgrid/cmd/chordgrid/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
