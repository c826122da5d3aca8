// sprtrc - TLMS spreader tracking log parser
//
// sprtrc parses TLMS measurement result logs into per-job time series of
// spreader positions, exports them as CSV and reports landing metrics.
package main

import (
	"os"

	"github.com/tlms-tools/sprtrc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
