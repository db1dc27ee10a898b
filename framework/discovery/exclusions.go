package discovery

import "strings"

// NamePrefixExclusion excludes every source whose name starts with one of the
// given prefixes. Prefix matching is a blunt instrument — it is meant for
// skipping well-known foreign ecosystems, not for protecting the framework's
// own source (the engine handles that by identity, see Engine.Host).
func NamePrefixExclusion(prefixes ...string) Predicate {
	return func(src Source) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(src.Name, p) {
				return true
			}
		}
		return false
	}
}

// DefaultExclusions returns the sample exclusion set: platform runtime
// libraries, test runners, interactive-language hosts, and the framework's
// own test helpers. This is configuration data, not engine logic — install it
// with Engine.Exclude, replace it wholesale, or extend it.
func DefaultExclusions() []Predicate {
	return []Predicate{
		NamePrefixExclusion("System.", "Microsoft.", "netstandard", "mscorlib"),
		NamePrefixExclusion("xunit", "nunit", "testhost"),
		NamePrefixExclusion("FSI-ASSEMBLY", "csi", "repl"),
		NamePrefixExclusion("keel.testing"),
	}
}
