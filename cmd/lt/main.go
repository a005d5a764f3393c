// Command lt is the learning-progress tracker CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mschirtzinger/learntrack/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		os.Exit(1)
	}
}
