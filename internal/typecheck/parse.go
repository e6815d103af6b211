// SPDX-License-Identifier: MPL-2.0

package typecheck

import (
	"bufio"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mochi/mochi-cli/internal/diag"
)

var (
	// src/foo/index.ts(3,7): error TS2322: Type 'string' is not assignable to type 'number'.
	locatedLine = regexp.MustCompile(`^(.+)\((\d+),(\d+)\): (error|warning|suggestion|message) (TS\d+): (.*)$`)
	// error TS5023: Unknown compiler option 'foo'.
	globalLine = regexp.MustCompile(`^(error|warning|suggestion|message) (TS\d+): (.*)$`)
)

// ParseOutput turns `tsc --pretty false` output into diagnostics. Relative
// file paths are resolved against root. Indented lines continue the
// previous diagnostic's message.
func ParseOutput(out, root string) []diag.Diagnostic {
	var ds []diag.Diagnostic
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if m := locatedLine.FindStringSubmatch(line); m != nil {
			ln, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			file := m[1]
			if !filepath.IsAbs(file) {
				file = filepath.Join(root, filepath.FromSlash(file))
			}
			ds = append(ds, diag.Diagnostic{
				Severity: diag.ParseSeverity(m[4]),
				File:     file,
				Line:     ln,
				Column:   col,
				Code:     m[5],
				Message:  m[6],
			})
			continue
		}
		if m := globalLine.FindStringSubmatch(line); m != nil {
			ds = append(ds, diag.Diagnostic{
				Severity: diag.ParseSeverity(m[1]),
				Code:     m[2],
				Message:  m[3],
			})
			continue
		}
		if len(ds) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			last := &ds[len(ds)-1]
			last.Message += "\n" + strings.TrimSpace(line)
		}
	}
	return ds
}
