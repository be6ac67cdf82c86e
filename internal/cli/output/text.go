package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"

	"github.com/quench-dev/quench/internal/runner"
)

type textRenderer struct {
	out  io.Writer
	err  io.Writer
	term *termenv.Output
}

func (r *textRenderer) Report(rep *runner.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"CHECK", "STATUS", "VIOLATIONS", "TIME"})

	for _, res := range rep.Results {
		t.AppendRow(table.Row{
			res.Name,
			r.status(res.Passed, res.Skipped, res.Err),
			len(res.Violations),
			res.Duration.Round(fmtPrecision(res.Duration)),
		})
	}
	t.Render()

	for _, res := range rep.Results {
		if res.Err != "" && !res.Skipped {
			fmt.Fprintf(r.out, "\n%s: %s\n", res.Name, res.Err)
		}
		for _, v := range res.Violations {
			loc := v.File
			if v.Line > 0 {
				loc = fmt.Sprintf("%s:%d", v.File, v.Line)
			}
			if loc == "" {
				loc = v.Pattern
			}
			fmt.Fprintf(r.out, "\n  %s  %s\n      %s\n",
				r.term.String(loc).Bold(), v.Type, v.Advice)
		}
	}

	if rep.Truncated > 0 {
		fmt.Fprintf(r.out, "\n%d more violations hidden (raise check.limit or pass --no-limit)\n", rep.Truncated)
	}

	fmt.Fprintf(r.out, "\n%d files", rep.Files)
	if rep.CacheHits+rep.CacheMisses > 0 {
		fmt.Fprintf(r.out, ", cache %d/%d hits", rep.CacheHits, rep.CacheHits+rep.CacheMisses)
	}
	fmt.Fprintf(r.out, ", %s\n", rep.Duration.Round(fmtPrecision(rep.Duration)))
	return nil
}

func (r *textRenderer) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.err, "%s %s\n", r.term.String("error:").Foreground(r.term.Color("1")), msg)
}

func fmtPrecision(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		return 10 * time.Millisecond
	case d > time.Millisecond:
		return 100 * time.Microsecond
	default:
		return time.Microsecond
	}
}

func (r *textRenderer) status(passed, skipped bool, errMsg string) string {
	switch {
	case skipped:
		return r.term.String("SKIP").Foreground(r.term.Color("3")).String()
	case errMsg != "":
		return r.term.String("ERROR").Foreground(r.term.Color("1")).String()
	case passed:
		return r.term.String("PASS").Foreground(r.term.Color("2")).String()
	default:
		return r.term.String("FAIL").Foreground(r.term.Color("1")).String()
	}
}
