package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/export"
)

type rosterRepoStub struct {
	rows []models.EnrollmentDetail
	err  error
}

func (r rosterRepoStub) ListRoster(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	return r.rows, r.err
}

type pdfRendererStub struct {
	title string
	rows  int
}

func (p *pdfRendererStub) Render(data export.Dataset, title string) ([]byte, error) {
	p.title = title
	p.rows = len(data.Rows)
	return []byte("%PDF-stub"), nil
}

func (p *pdfRendererStub) ContentType() string { return "application/pdf" }

func rosterFixture() []models.EnrollmentDetail {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return []models.EnrollmentDetail{
		{
			Enrollment: models.Enrollment{
				ID: "e1", Status: models.EnrollmentStatusConfirmed, CreatedAt: created,
				Payment: &models.PaymentSummary{Status: models.PaymentStatusPaid, Amount: 120},
			},
			StudentName: "Ana", StudentEmail: "ana@example.com",
		},
		{
			Enrollment:  models.Enrollment{ID: "e2", Status: models.EnrollmentStatusTest, CreatedAt: created},
			StudentName: "Ben", StudentEmail: "ben@example.com",
		},
	}
}

func newRosterService(repo rosterRepoStub, pdf pdfRenderer) *RosterService {
	classes := classFinderStub{classes: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Title: "Intro to Robotics!"}},
	}}
	svc := NewRosterService(repo, classes, nil, pdf, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestBuildRosterDataset(t *testing.T) {
	data := BuildRosterDataset(rosterFixture())
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "PAID", data.Rows[0]["Payment"])
	assert.Equal(t, "$120.00", data.Rows[0]["Amount"])
	assert.Equal(t, "2024-03-05", data.Rows[0]["Enrolled At"])
	assert.Equal(t, "-", data.Rows[1]["Payment"])
	assert.Equal(t, "", data.Rows[1]["Amount"])
}

func TestRosterServiceExportCSV(t *testing.T) {
	svc := newRosterService(rosterRepoStub{rows: rosterFixture()}, nil)

	file, err := svc.Export(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "roster-intro-to-robotics-20240401.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Email,Status,Payment,Amount,Enrolled At", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Ana,ana@example.com,CONFIRMED,PAID"))
}

func TestRosterServiceExportPDF(t *testing.T) {
	pdf := &pdfRendererStub{}
	svc := newRosterService(rosterRepoStub{rows: rosterFixture()}, pdf)

	file, err := svc.Export(context.Background(), "c1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.Equal(t, "Roster - Intro to Robotics!", pdf.title)
	assert.Equal(t, 2, pdf.rows)
}

func TestRosterServiceExportErrors(t *testing.T) {
	svc := newRosterService(rosterRepoStub{}, nil)
	_, err := svc.Export(context.Background(), "c1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	svc = newRosterService(rosterRepoStub{err: errors.New("db down")}, nil)
	_, err = svc.Export(context.Background(), "c1", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "intro-to-robotics", slug("  Intro to   Robotics!! "))
	assert.Equal(t, "", slug("!!!"))
	assert.Equal(t, "c-101", slug("C++ 101"))
}
