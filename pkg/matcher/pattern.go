package matcher

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/deescovery/deescovery/internal/errors"
)

// CompilePatterns compiles shell-style wildcards for module paths.
// No separator is configured, so '*' also crosses dots: "*.models" matches
// "app.users.models". An empty pattern is an error since no module path is empty.
func CompilePatterns(patterns ...string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern == "" {
			return nil, errors.New("empty module pattern")
		}

		g, err := glob.Compile(translatePattern(pattern))
		if err != nil {
			return nil, errors.Errorf("invalid module pattern %q: %w", pattern, err)
		}

		globs = append(globs, g)
	}

	return globs, nil
}

// MatchByPattern selects module paths matching any of the given patterns, e.g.
//
//	MatchByPattern("*.models", "*.models.*")
//
// matches every "models" module and everything below a "models" package.
// The whole path must match. An empty pattern list never matches, and an invalid
// pattern is skipped; use [CompilePatterns] to surface the error instead.
//
// Patterns follow fnmatch: '\' and braces are literal, a '[' without a closing ']'
// is literal and a ']' right after "[" or "[!" belongs to the class.
func MatchByPattern(patterns ...string) Predicate[string] {
	globs := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		if compiled, err := CompilePatterns(pattern); err == nil {
			globs = append(globs, compiled...)
		}
	}

	return func(value string) bool {
		for _, g := range globs {
			if g.Match(value) {
				return true
			}
		}

		return false
	}
}

// globSpecial are the runes gobwas/glob reads as syntax outside a class.
const globSpecial = `\{}[],*?!-`

type runeRange struct {
	lo, hi rune
}

// translatePattern rewrites an fnmatch pattern into gobwas/glob syntax.
// gobwas classes hold either one range or a list of runes, so every class is
// rewritten as an alternation of single ranges.
func translatePattern(pattern string) string {
	var (
		sb    strings.Builder
		runes = []rune(pattern)
	)

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*', '?':
			sb.WriteRune(r)
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				writeLiteral(&sb, r)
				continue
			}

			writeClass(&sb, runes[i+1:end])
			i = end
		default:
			writeLiteral(&sb, r)
		}
	}

	return sb.String()
}

// classEnd returns the index of the ']' closing the class opened at start, or -1.
func classEnd(runes []rune, start int) int {
	j := start + 1

	if j < len(runes) && runes[j] == '!' {
		j++
	}

	if j < len(runes) && runes[j] == ']' {
		j++
	}

	for ; j < len(runes); j++ {
		if runes[j] == ']' {
			return j
		}
	}

	return -1
}

func writeClass(sb *strings.Builder, class []rune) {
	negate := len(class) > 0 && class[0] == '!'
	if negate {
		class = class[1:]
	}

	var ranges []runeRange

	for i := 0; i < len(class); i++ {
		lo, hi := class[i], class[i]

		if i+2 < len(class) && class[i+1] == '-' {
			hi = class[i+2]
			i += 2
		}

		// a reversed range matches nothing
		if lo <= hi {
			ranges = append(ranges, runeRange{lo: lo, hi: hi})
		}
	}

	ranges = mergeRanges(ranges)
	if negate {
		ranges = complementRanges(ranges)
	}

	terms := make([]string, 0, len(ranges)+1)

	for _, rr := range ranges {
		// a leading '!' would negate a gobwas class
		if rr.lo == '!' && rr.hi > '!' {
			terms = append(terms, `\!`)
			rr.lo++
		}

		terms = append(terms, rangeTerm(rr))
	}

	switch len(terms) {
	case 0:
		sb.WriteString("[!" + string(rune(0)) + "-" + string(utf8.MaxRune) + "]")
	case 1:
		sb.WriteString(terms[0])
	default:
		sb.WriteString("{" + strings.Join(terms, ",") + "}")
	}
}

func rangeTerm(rr runeRange) string {
	if rr.lo == rr.hi {
		var sb strings.Builder

		writeLiteral(&sb, rr.lo)

		return sb.String()
	}

	return "[" + string(rr.lo) + "-" + string(rr.hi) + "]"
}

func writeLiteral(sb *strings.Builder, r rune) {
	if strings.ContainsRune(globSpecial, r) {
		sb.WriteByte('\\')
	}

	sb.WriteRune(r)
}

func mergeRanges(ranges []runeRange) []runeRange {
	slices.SortFunc(ranges, func(a, b runeRange) int {
		return int(a.lo - b.lo)
	})

	merged := make([]runeRange, 0, len(ranges))

	for _, rr := range ranges {
		if n := len(merged); n > 0 && rr.lo <= merged[n-1].hi+1 {
			merged[n-1].hi = max(merged[n-1].hi, rr.hi)
			continue
		}

		merged = append(merged, rr)
	}

	return merged
}

func complementRanges(ranges []runeRange) []runeRange {
	var (
		result []runeRange
		next   rune
	)

	for _, rr := range ranges {
		if rr.lo > next {
			result = append(result, runeRange{lo: next, hi: rr.lo - 1})
		}

		next = rr.hi + 1
	}

	if next <= utf8.MaxRune {
		result = append(result, runeRange{lo: next, hi: utf8.MaxRune})
	}

	return result
}
