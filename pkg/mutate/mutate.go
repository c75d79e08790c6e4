// Package mutate provides the adaptive payload mutation engine: a
// knowledge base of payloads that previously triggered a positive
// classification, and a catalog of mutation techniques biased toward
// structures that worked before.
package mutate

import (
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fenrir-sec/fenrir/pkg/defaults"
)

// KnowledgeBase records, per attack rule, the payloads that produced a
// positive classification. Insertion order is preserved so recent
// successes weigh more during recombination. Entries are capped per rule;
// the oldest are dropped first.
//
// Safe for concurrent use. Strict linearizability is not required by
// callers — eventual inclusion of a recorded success is sufficient.
type KnowledgeBase struct {
	mu        sync.Mutex
	successes map[string][]string
	capacity  int
}

// NewKnowledgeBase returns an empty knowledge base capped at
// defaults.MaxSuccessesPerRule entries per rule.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		successes: make(map[string][]string),
		capacity:  defaults.MaxSuccessesPerRule,
	}
}

// Learn appends payload to the rule's success history, creating the rule
// entry if absent. Duplicate payloads are permitted and simply increase
// their selection weight.
func (kb *KnowledgeBase) Learn(rule, payload string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	entries := append(kb.successes[rule], payload)
	if len(entries) > kb.capacity {
		entries = entries[len(entries)-kb.capacity:]
	}
	kb.successes[rule] = entries
}

// Successes returns a copy of the recorded successes for rule, oldest
// first. Nil when the rule has no history.
func (kb *KnowledgeBase) Successes(rule string) []string {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	entries := kb.successes[rule]
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}

// Rules returns the rule names with at least one recorded success.
func (kb *KnowledgeBase) Rules() []string {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	rules := make([]string, 0, len(kb.successes))
	for rule := range kb.successes {
		rules = append(rules, rule)
	}
	return rules
}

// Technique transforms a payload into a single variant.
type Technique struct {
	Name  string
	Apply func(payload string, rng *rand.Rand) string
}

// Catalog is the fixed set of mutation techniques. Both the history-free
// and the history-biased paths draw from the same catalog.
var Catalog = []Technique{
	{Name: "case-alternation", Apply: caseAlternate},
	{Name: "encoding-substitution", Apply: encodingSubstitute},
	{Name: "whitespace-substitution", Apply: whitespaceSubstitute},
	{Name: "comment-insertion", Apply: commentInsert},
}

// Engine mutates payloads, consulting the knowledge base when the rule
// has recorded successes.
type Engine struct {
	kb *KnowledgeBase

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns a mutation engine backed by kb. A nil kb gets a
// fresh, empty knowledge base.
func NewEngine(kb *KnowledgeBase) *Engine {
	if kb == nil {
		kb = NewKnowledgeBase()
	}
	return &Engine{
		kb:  kb,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // non-crypto randomness drives mutation choice
	}
}

// KnowledgeBase exposes the engine's backing store so executors can feed
// successes back in.
func (e *Engine) KnowledgeBase() *KnowledgeBase { return e.kb }

// Mutate returns a mutated variant of base for the named rule. With
// recorded history the result is biased toward recombination with a
// previously successful payload (recent successes preferred); without
// history a technique is chosen uniformly from the catalog. Always
// terminates and always returns a string, including for empty base.
func (e *Engine) Mutate(rule, base string) string {
	history := e.kb.Successes(rule)

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(history) > 0 && e.rng.Intn(2) == 0 {
		return recombine(base, pickRecentBiased(history, e.rng), e.rng)
	}

	t := Catalog[e.rng.Intn(len(Catalog))]
	return t.Apply(base, e.rng)
}

// pickRecentBiased selects an entry with later (more recent) indexes
// favored: the larger of two uniform draws.
func pickRecentBiased(entries []string, rng *rand.Rand) string {
	a, b := rng.Intn(len(entries)), rng.Intn(len(entries))
	if b > a {
		a = b
	}
	return entries[a]
}

// recombine splices a previously successful payload with the base:
// either appended whole or merged at a random split point. The success
// always survives as a recognizable substring.
func recombine(base, success string, rng *rand.Rand) string {
	if base == "" {
		return success
	}
	if rng.Intn(2) == 0 {
		return base + success
	}
	cut := rng.Intn(len(base) + 1)
	return base[:cut] + success
}

func caseAlternate(payload string, rng *rand.Rand) string {
	if payload == "" {
		return payload
	}
	var b strings.Builder
	b.Grow(len(payload))
	for _, ch := range payload {
		if rng.Intn(2) == 0 {
			if ch >= 'a' && ch <= 'z' {
				ch -= 0x20
			} else if ch >= 'A' && ch <= 'Z' {
				ch += 0x20
			}
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func encodingSubstitute(payload string, rng *rand.Rand) string {
	switch rng.Intn(3) {
	case 0:
		return url.QueryEscape(payload)
	case 1:
		return url.QueryEscape(url.QueryEscape(payload))
	default:
		// Fullwidth substitution for printable ASCII.
		var b strings.Builder
		b.Grow(len(payload) * 3)
		for _, ch := range payload {
			if ch >= '!' && ch <= '~' {
				b.WriteRune(ch - '!' + 0xFF01)
			} else {
				b.WriteRune(ch)
			}
		}
		return b.String()
	}
}

var whitespaceAlternatives = []string{"\t", "\n", "\r\n", " ", "+", "%09", "%0a"}

func whitespaceSubstitute(payload string, rng *rand.Rand) string {
	alt := whitespaceAlternatives[rng.Intn(len(whitespaceAlternatives))]
	return strings.ReplaceAll(payload, " ", alt)
}

var commentTokens = []string{"/**/", "/*!*/", "<!---->"}

func commentInsert(payload string, rng *rand.Rand) string {
	token := commentTokens[rng.Intn(len(commentTokens))]
	words := strings.Split(payload, " ")
	if len(words) < 2 {
		return payload + token
	}
	return strings.Join(words, token)
}
