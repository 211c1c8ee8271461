package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-portal-api/pkg/reporting"
)

// ErrorReporter forwards errors to an external tracker. Satisfied by *reporting.Reporter.
type ErrorReporter interface {
	RequestError(req *http.Request, err error, person *reporting.Person, extras map[string]interface{})
}

// ReportErrors forwards 5xx responses and recovered panics to the reporter.
// Client errors are expected traffic and are not reported.
func ReportErrors(reporter ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reporter == nil {
			c.Next()
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = errors.New("panic: " + stringify(rec))
				}
				reporter.RequestError(c.Request, err, personFrom(c), extrasFrom(c))
				panic(rec)
			}
		}()

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		err := c.Errors.Last()
		if err == nil {
			reporter.RequestError(c.Request, errors.New(http.StatusText(c.Writer.Status())), personFrom(c), extrasFrom(c))
			return
		}
		cause := err.Err
		if appErr := appErrors.FromError(err.Err); appErr.Err != nil {
			cause = appErr.Err
		}
		reporter.RequestError(c.Request, cause, personFrom(c), extrasFrom(c))
	}
}

func personFrom(c *gin.Context) *reporting.Person {
	claims := Claims(c)
	if claims == nil {
		return nil
	}
	return &reporting.Person{ID: claims.UserID, Name: claims.FullName, Email: claims.Email}
}

func extrasFrom(c *gin.Context) map[string]interface{} {
	return map[string]interface{}{
		"request_id": requestid.Value(c),
		"route":      c.FullPath(),
		"status":     c.Writer.Status(),
	}
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "unexpected value"
}
