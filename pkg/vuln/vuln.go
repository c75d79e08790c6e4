// Package vuln defines the open vulnerability-kind enumeration shared by
// the analysis engine, the fuzzing core, and downstream reporting.
package vuln

// Kind classifies a detected vulnerability. The enumeration is open:
// consumers must treat values they do not recognize as KindOther rather
// than failing, so new kinds can be added without breaking readers.
type Kind string

const (
	KindNone             Kind = ""
	KindSQLInjection     Kind = "sql_injection"
	KindXSS              Kind = "xss"
	KindPathTraversal    Kind = "path_traversal"
	KindCommandInjection Kind = "command_injection"
	KindInfoDisclosure   Kind = "info_disclosure"
	KindAuthBypass       Kind = "auth_bypass"
	KindPromptInjection  Kind = "prompt_injection"
	KindDesyncCLTE       Kind = "desync_cl_te"
	KindDesyncTECL       Kind = "desync_te_cl"
	KindDesyncTETE       Kind = "desync_te_te"
	KindDesyncExpect     Kind = "desync_expect"
	KindDesyncConnection Kind = "desync_connection"
	KindOther            Kind = "other"
)

// known is the closed set this build understands. Anything else folds to
// KindOther in Normalize.
var known = map[Kind]struct{}{
	KindSQLInjection:     {},
	KindXSS:              {},
	KindPathTraversal:    {},
	KindCommandInjection: {},
	KindInfoDisclosure:   {},
	KindAuthBypass:       {},
	KindPromptInjection:  {},
	KindDesyncCLTE:       {},
	KindDesyncTECL:       {},
	KindDesyncTETE:       {},
	KindDesyncExpect:     {},
	KindDesyncConnection: {},
	KindOther:            {},
}

// Normalize maps unknown kinds to KindOther. KindNone passes through so
// "no finding" stays distinguishable from "unrecognized finding".
func Normalize(k Kind) Kind {
	if k == KindNone {
		return KindNone
	}
	if _, ok := known[k]; ok {
		return k
	}
	return KindOther
}

// Priority is the fixed tie-break order used when several indicator
// families match the same response: earlier entries win. Declared once
// here rather than re-derived at call sites.
var Priority = []Kind{
	KindCommandInjection,
	KindSQLInjection,
	KindXSS,
	KindPathTraversal,
	KindPromptInjection,
	KindAuthBypass,
	KindInfoDisclosure,
}

// StrongerOf returns whichever of a, b ranks higher in Priority.
// Kinds absent from the table rank below every listed kind.
func StrongerOf(a, b Kind) Kind {
	if a == KindNone {
		return b
	}
	if b == KindNone {
		return a
	}
	if rank(a) <= rank(b) {
		return a
	}
	return b
}

func rank(k Kind) int {
	for i, p := range Priority {
		if p == k {
			return i
		}
	}
	return len(Priority)
}
