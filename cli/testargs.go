package cli

// This file contains argument processing utilities for separating
// package patterns from go test flags.

import "strings"

// splitTestArgs separates package patterns from go test flags. Packages
// come first; from the first flag (or "--") on, everything is passed to
// go test verbatim so that flag values (-run TestA) stay with their flag.
// Flag parsing usually consumes the "--" itself before we get here.
func splitTestArgs(args []string) (packages, flags []string) {
	packages = []string{}
	flags = []string{}

	for i, arg := range args {
		if arg == "--" {
			flags = append(flags, args[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "-") {
			flags = append(flags, args[i:]...)
			break
		}

		packages = append(packages, arg)
	}

	return packages, flags
}

// hasJSONFlag reports whether the user already asked for -json output.
func hasJSONFlag(flags []string) bool {
	for _, f := range flags {
		if f == "-json" || f == "--json" || strings.HasPrefix(f, "-json=") {
			return true
		}
	}
	return false
}
