package cmdline

import "fmt"

// NoArgs rejects any positional args.
func NoArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}
	return Usagef("expected no args, got %d", len(args))
}

// ExactArgs returns an ArgsFunc that requires exactly n args.
func ExactArgs(n int) ArgsFunc {
	return func(args []string) error {
		if len(args) == n {
			return nil
		}
		return Usagef("expected %s, got %d", pluralArgs(n), len(args))
	}
}

// RangeArgs returns an ArgsFunc that requires between lo and hi args, inclusive.
func RangeArgs(lo, hi int) ArgsFunc {
	return func(args []string) error {
		if len(args) >= lo && len(args) <= hi {
			return nil
		}
		return Usagef("expected %d-%s, got %d", lo, pluralArgs(hi), len(args))
	}
}

func pluralArgs(n int) string {
	if n == 1 {
		return "1 arg"
	}
	return fmt.Sprintf("%d args", n)
}
