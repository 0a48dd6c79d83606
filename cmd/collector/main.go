// Collector - ecFlow node timing statistics
//
// The collector reads an ecFlow server log and reports when a node reached
// a status on each day of a date range, with mean and trimmed mean.
package main

import (
	"os"

	"github.com/nwpc-oper/workflow-log-collector/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
