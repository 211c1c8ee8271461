package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/export"
)

// Supported roster formats.
const (
	RosterFormatCSV = "csv"
	RosterFormatPDF = "pdf"
)

var rosterHeaders = []string{"Student", "Email", "Status", "Payment", "Amount", "Enrolled At"}

type rosterRepository interface {
	ListRoster(ctx context.Context, classID string) ([]models.EnrollmentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// RosterFile is a rendered roster ready to be streamed.
type RosterFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RosterService renders class rosters for administrators.
type RosterService struct {
	roster  rosterRepository
	classes classFinder
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewRosterService constructs a RosterService. Nil renderers fall back to the default exporters.
func NewRosterService(roster rosterRepository, classes classFinder, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &RosterService{roster: roster, classes: classes, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the non-cancelled enrollments of a class.
func (s *RosterService) Export(ctx context.Context, classID, format string) (*RosterFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = RosterFormatCSV
	}
	if format != RosterFormatCSV && format != RosterFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	enrollments, err := s.roster.ListRoster(ctx, classID)
	if err != nil {
		return nil, internalError(err, "failed to load roster")
	}

	dataset := BuildRosterDataset(enrollments)
	stamp := s.now().UTC().Format("20060102")
	file := &RosterFile{Filename: fmt.Sprintf("roster-%s-%s.%s", slug(class.Title), stamp, format)}

	switch format {
	case RosterFormatPDF:
		file.Data, err = s.pdf.Render(dataset, "Roster - "+class.Title)
		file.ContentType = s.pdf.ContentType()
	default:
		file.Data, err = s.csv.Render(dataset)
		file.ContentType = s.csv.ContentType()
	}
	if err != nil {
		return nil, internalError(err, "failed to render roster")
	}

	s.logger.Info("roster exported",
		zap.String("class_id", classID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)))
	return file, nil
}

// BuildRosterDataset flattens enrollments into roster rows.
func BuildRosterDataset(enrollments []models.EnrollmentDetail) export.Dataset {
	data := export.Dataset{Headers: rosterHeaders}
	for _, e := range enrollments {
		paymentStatus, amount := "-", ""
		if e.Payment != nil {
			paymentStatus = string(e.Payment.Status)
			amount = FormatPrice(e.Payment.Amount)
		}
		data.Append(
			e.StudentName,
			e.StudentEmail,
			string(e.Status),
			paymentStatus,
			amount,
			e.CreatedAt.UTC().Format("2006-01-02"),
		)
	}
	return data
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
