package harness

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

// PromptCrashDecider asks the operator on out, reading answers from in, whether to run each
// test suspected of crashing. "y" runs it, "q" ends the run, anything else (including end of
// input) skips it.
func PromptCrashDecider(in io.Reader, out io.Writer) pgtest.CrashDecider {
	scanner := bufio.NewScanner(in)
	return func(id pgtest.TestID) pgtest.Decision {
		fmt.Fprintf(out, "%s may have crashed a previous run. Run it anyway? [y/N/q] ", id)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return pgtest.SkipTest
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return pgtest.RunTest
		case "q", "quit":
			return pgtest.AbortRun
		default:
			return pgtest.SkipTest
		}
	}
}
