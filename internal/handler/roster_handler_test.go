package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/service"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type rosterServiceMock struct {
	format string
}

func (m *rosterServiceMock) Export(ctx context.Context, classID, format string) (*service.RosterFile, error) {
	m.format = format
	if format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	return &service.RosterFile{Filename: "roster-" + classID + ".csv", ContentType: "text/csv", Data: []byte("Student,Email\n")}, nil
}

func TestRosterHandlerStreamsAttachment(t *testing.T) {
	svc := &rosterServiceMock{}
	c, w := newTestContext(http.MethodGet, "/api/admin/classes/c1/roster", nil, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	NewRosterHandler(svc).Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.RosterFormatCSV, svc.format)
	assert.Equal(t, `attachment; filename="roster-c1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Student,Email\n", w.Body.String())
}

func TestRosterHandlerRejectsUnknownFormat(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/admin/classes/c1/roster?format=xlsx", nil, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	NewRosterHandler(&rosterServiceMock{}).Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
