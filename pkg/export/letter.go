package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// LetterData describes one leave/OD request rendered as a decision letter.
type LetterData struct {
	Institution string
	RequestID   string
	RequestType string
	StudentName string
	StudentID   string
	Reason      string
	Details     string
	StartDate   time.Time
	EndDate     time.Time
	Periods     *int
	Status      string
	DecidedBy   string
	DecidedAt   *time.Time
	SubmittedAt time.Time
}

// LetterRenderer produces formatted approval and rejection letters.
type LetterRenderer struct {
	now func() time.Time
}

// NewLetterRenderer constructs a renderer using the wall clock.
func NewLetterRenderer() *LetterRenderer {
	return &LetterRenderer{now: time.Now}
}

// Render lays out title, date, personal details, request details, status and a footer timestamp.
func (r *LetterRenderer) Render(data LetterData) ([]byte, error) {
	if data.RequestID == "" || data.StudentName == "" {
		return nil, fmt.Errorf("letter requires request id and student name")
	}
	now := r.now().UTC()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated %s | Ref %s", now.Format(time.RFC1123), data.RequestID), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	field := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 7, label+":", "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(value), "", 1, "", false, 0, "")
	}

	title := fmt.Sprintf("%s %s LETTER", requestLabel(data.RequestType), strings.ToUpper(statusWord(data.Status)))
	if data.Institution != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(data.Institution), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Date: "+now.Format("02 January 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Personal Details")
	field("Name", data.StudentName)
	field("Student ID", data.StudentID)
	pdf.Ln(3)

	section(pdf, "Request Details")
	field("Type", requestLabel(data.RequestType))
	field("Reason", data.Reason)
	field("From", data.StartDate.Format("02 Jan 2006"))
	field("To", data.EndDate.Format("02 Jan 2006"))
	if data.Periods != nil {
		field("Periods", fmt.Sprintf("%d", *data.Periods))
	}
	field("Submitted", data.SubmittedAt.UTC().Format("02 Jan 2006 15:04 MST"))
	if data.Details != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 7, "Details:", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(data.Details), "", "", false)
	}
	pdf.Ln(3)

	section(pdf, "Approval Status")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, strings.ToUpper(data.Status), "", 1, "", false, 0, "")
	if data.DecidedBy != "" {
		field("Decided by", data.DecidedBy)
	}
	if data.DecidedAt != nil {
		field("Decided at", data.DecidedAt.UTC().Format("02 Jan 2006 15:04 MST"))
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(0, 8, title, "", 1, "", true, 0, "")
	pdf.Ln(1)
}

func requestLabel(kind string) string {
	if strings.EqualFold(kind, "od") {
		return "ON-DUTY"
	}
	return "LEAVE"
}

func statusWord(status string) string {
	switch strings.ToLower(status) {
	case "approved":
		return "approval"
	case "rejected":
		return "rejection"
	default:
		return "status"
	}
}
