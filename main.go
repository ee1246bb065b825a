// MediTrack - medication reminders with live sync
package main

import (
	"os"

	"github.com/robibiruk/meditrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
