// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"regexp"
	"strings"
)

var (
	caseBoundary = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	separatorRun = regexp.MustCompile(`[\s_]+`)
)

// ToID converts a display name to a kebab-case module id: a hyphen goes
// between a lowercase letter and a following uppercase one, every run of
// whitespace or underscores becomes one hyphen, and the result is
// lowercased. Other characters are kept as they are. ToID(ToID(s)) == ToID(s).
func ToID(name string) string {
	id := caseBoundary.ReplaceAllString(name, "$1-$2")
	id = separatorRun.ReplaceAllString(id, "-")
	return strings.ToLower(id)
}
