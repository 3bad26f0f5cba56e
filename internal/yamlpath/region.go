// SPDX-License-Identifier: MIT
package yamlpath

import (
	"regexp"
	"strconv"
	"strings"
)

// Region is a half-open line range [Start, End).
type Region struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the region.
func (r Region) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// FrontMatter locates the YAML front matter body in an embedded document.
// Line 0 must be the opening "---" delimiter (excluded from the region); the
// region ends before the closing "---". Without a closing delimiter there is
// no region.
func FrontMatter(lines []string) (Region, bool) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return Region{}, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			return Region{Start: 1, End: i}, true
		}
	}
	return Region{}, false
}

// WholeFile returns the region covering every line, for YAML-only documents.
func WholeFile(lines []string) Region {
	return Region{Start: 0, End: len(lines)}
}

var fenceOpenRe = regexp.MustCompile("^\\s*(`{3,}|~{3,})(.*)$")

// Fence is the body of a fenced code block: the half-open line range starting
// immediately after the opening fence. The fence line itself stays outside so
// header attributes like {python} remain visible to attribute completion.
type Fence struct {
	Start int
	End   int
}

// Fences scans lines for fenced code blocks (3+ backticks or tildes). A block
// closes at a fence of the same character with the same or greater repeat
// count, or at end of text if unclosed.
func Fences(lines []string) []Fence {
	var out []Fence
	for i := 0; i < len(lines); i++ {
		m := fenceOpenRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		marker := m[1]
		closeRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(string(marker[0])) + `{` + strconv.Itoa(len(marker)) + `,}\s*$`)

		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if closeRe.MatchString(lines[j]) {
				end = j
				break
			}
		}
		out = append(out, Fence{Start: i + 1, End: end})
		if end == len(lines) {
			break
		}
		i = end
	}
	return out
}

// InFence reports whether line falls inside any fenced block body.
func InFence(fences []Fence, line int) bool {
	for _, f := range fences {
		if line >= f.Start && line < f.End {
			return true
		}
	}
	return false
}
