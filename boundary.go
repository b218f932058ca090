package partsplit

import "regexp"

// SplitFunc decides whether the current part ends after a line. line is the
// 1-based number of the line within the current part.
type SplitFunc func(p *DefaultPolicy, line int, content string) (bool, error)

// Uniform ends a part every PartSize lines, which spreads the input evenly
// over the requested number of parts. It is the default SplitFunc.
func Uniform(p *DefaultPolicy, line int, _ string) (bool, error) {
	return line == p.PartSize(), nil
}

// EveryN ends a part every n lines regardless of the requested part count.
func EveryN(n int) SplitFunc {
	return func(_ *DefaultPolicy, line int, _ string) (bool, error) {
		return line == n, nil
	}
}

// OnMatch ends a part after every line matching re. The matching line is the
// last line of its part.
func OnMatch(re *regexp.Regexp) SplitFunc {
	return func(_ *DefaultPolicy, _ int, content string) (bool, error) {
		return re.MatchString(content), nil
	}
}

// MaxBytes ends a part once it holds at least n bytes, counting one
// terminator byte per line. A single line longer than n gets a part of its
// own.
//
// The returned SplitFunc keeps a running total and must not be shared by
// policies that split concurrently.
func MaxBytes(n int64) SplitFunc {
	var size int64
	return func(_ *DefaultPolicy, line int, content string) (bool, error) {
		if line == 1 {
			size = 0
		}
		size += int64(len(content)) + 1
		return size >= n, nil
	}
}

// Any ends a part when any of fns does.
func Any(fns ...SplitFunc) SplitFunc {
	return func(p *DefaultPolicy, line int, content string) (bool, error) {
		for _, fn := range fns {
			ok, err := fn(p, line, content)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
}
