// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/mochi/mochi-cli/internal/report"
)

// installConsole binds a console object whose methods forward their
// arguments to r as KindConsole events.
func installConsole(vm *goja.Runtime, r report.Reporter, path string) {
	console := vm.NewObject()
	for _, method := range []string{"log", "info", "warn", "error", "debug", "trace"} {
		_ = console.Set(method, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				parts = append(parts, a.String())
			}
			r.Report(report.Event{
				Kind:    report.KindConsole,
				Message: strings.Join(parts, " "),
				Path:    path,
			})
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}
