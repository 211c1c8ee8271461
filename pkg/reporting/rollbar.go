// Package reporting forwards server errors to Rollbar.
package reporting

import (
	"net/http"

	"github.com/rollbar/rollbar-go"
)

// Person identifies the signed-in user attached to a report.
type Person struct {
	ID    string
	Name  string
	Email string
}

// Reporter sends errors to Rollbar when a token is configured and is a no-op otherwise.
type Reporter struct {
	enabled bool
}

// New configures the global Rollbar client.
func New(token, env, codeVersion string) *Reporter {
	enabled := token != ""
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetServerRoot("github.com/noah-isme/edu-portal-api")
	rollbar.SetEnabled(enabled)
	return &Reporter{enabled: enabled}
}

// Enabled reports whether errors are forwarded.
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// RequestError reports err with the originating request and optional person.
func (r *Reporter) RequestError(req *http.Request, err error, person *Person, extras map[string]interface{}) {
	if !r.Enabled() || err == nil {
		return
	}
	if person != nil {
		rollbar.SetPerson(person.ID, person.Name, person.Email)
		defer rollbar.ClearPerson()
	}
	rollbar.RequestErrorWithExtras(rollbar.ERR, req, err, extras)
}

// Error reports a background error.
func (r *Reporter) Error(err error, extras map[string]interface{}) {
	if !r.Enabled() || err == nil {
		return
	}
	rollbar.ErrorWithExtras(rollbar.ERR, err, extras)
}

// Close flushes pending reports.
func (r *Reporter) Close() {
	if r.Enabled() {
		rollbar.Close()
	}
}
