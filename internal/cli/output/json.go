package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/quench-dev/quench/internal/runner"
)

type jsonRenderer struct {
	out io.Writer
	err io.Writer
}

func (r *jsonRenderer) Report(rep *runner.Report) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func (r *jsonRenderer) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_ = json.NewEncoder(r.err).Encode(map[string]string{"error": msg})
}
