package payloads

import (
	"strings"
	"testing"
)

func TestLongString(t *testing.T) {
	if got := LongString(0); got != "" {
		t.Errorf("LongString(0) = %q, want empty", got)
	}
	if got := LongString(-5); got != "" {
		t.Errorf("LongString(-5) = %q, want empty", got)
	}
	if got := len(LongString(10000)); got != 10000 {
		t.Errorf("len(LongString(10000)) = %d", got)
	}
	if got := len(LongString(1)); got != 1 {
		t.Errorf("len(LongString(1)) = %d", got)
	}
}

func TestNullByteAlwaysContainsNUL(t *testing.T) {
	for i, p := range NullByte().Payloads {
		if !strings.Contains(p, "\x00") {
			t.Errorf("payload %d has no NUL byte: %q", i, p)
		}
	}
}

func TestCategoryTagging(t *testing.T) {
	cases := []struct {
		set  Set
		want string
	}{
		{SQLInjection(), CategorySQLi},
		{XSS(), CategoryXSS},
		{PathTraversal(), CategoryTraversal},
		{CommandInjection(), CategoryCmdI},
		{NoSQLInjection(), CategoryNoSQLi},
		{LDAPInjection(), CategoryLDAP},
		{SpecialCharacters(), CategoryEdge},
		{Unicode(), CategoryEdge},
		{Oversized(), CategoryEdge},
		{NullByte(), CategoryEdge},
	}
	for _, tc := range cases {
		if tc.set.Category != tc.want {
			t.Errorf("%s: category = %q, want %q", tc.set.Name, tc.set.Category, tc.want)
		}
		if len(tc.set.Payloads) == 0 {
			t.Errorf("%s: empty payload set", tc.set.Name)
		}
	}
}

func TestCommandInjectionCoversAllSeparators(t *testing.T) {
	set := CommandInjection()
	for _, marker := range []string{"; ", "| ", "` ", "$("} {
		found := false
		for _, p := range set.Payloads {
			if strings.Contains(p, marker) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no payload uses separator %q", marker)
		}
	}
}

func TestForCategory(t *testing.T) {
	if sets := ForCategory("no-such-category"); sets != nil {
		t.Errorf("unknown category returned %d sets, want nil", len(sets))
	}
	if sets := ForCategory(CategoryEdge); len(sets) != 4 {
		t.Errorf("edge category returned %d sets, want 4", len(sets))
	}
	if sets := ForCategory(CategorySQLi); len(sets) != 1 {
		t.Errorf("sqli category returned %d sets, want 1", len(sets))
	}
}

func TestFuzzedUsername(t *testing.T) {
	if got := FuzzedUsername(0); got != "" {
		t.Errorf("FuzzedUsername(0) = %q, want empty", got)
	}
	name := FuzzedUsername(32)
	if len(name) != 32 {
		t.Fatalf("len = %d, want 32", len(name))
	}
	for _, ch := range name {
		if !strings.ContainsRune(usernameAlphabet, ch) {
			t.Errorf("character %q outside alphabet", ch)
		}
	}
}
