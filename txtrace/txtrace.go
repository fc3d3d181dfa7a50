// Package txtrace renders a transaction's instruction trace as a
// colorized, indented dump for debugging and test failure output. It
// has no influence on execution: it only reads back what a
// TransactionContext already recorded.
package txtrace

import (
	"strings"

	"github.com/fatih/color"

	txctx "github.com/cielu/go-solana-runtime"
)

var (
	depthColor   = color.New(color.FgCyan)
	programColor = color.New(color.FgYellow, color.Bold)
	detailColor  = color.New(color.FgGreen)
)

// Dump renders every frame recorded in ctx's instruction trace, one
// line per frame, indented by call depth. Colors no-op automatically
// when the output isn't a terminal, per fatih/color's own detection.
func Dump(ctx *txctx.TransactionContext) string {
	var b strings.Builder
	for i := 0; i < ctx.TraceLength(); i++ {
		frame, err := ctx.FrameAtTraceIndex(i)
		if err != nil {
			continue
		}
		depth := frame.GetStackHeight()
		b.WriteString(depthColor.Sprint(strings.Repeat("  ", depth-1)))
		b.WriteString(programColor.Sprintf("#%d ", i))

		programKey := "<none>"
		if key, err := frame.LastProgramKey(ctx); err == nil {
			programKey = key.String()
		}
		b.WriteString(programColor.Sprint(programKey))

		b.WriteString(detailColor.Sprintf(" (%d program accounts, %d instruction accounts, %d bytes data)\n",
			frame.NumProgramAccounts(), frame.NumInstructionAccounts(), len(frame.InstructionData())))
	}
	return b.String()
}
