// Package report renders the signed clinical report PDF from a persisted
// summary: doctor letterhead, the seven summary sections, and a dated
// signature block.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// accentR, accentG, accentB is the letterhead accent color (#2F80ED).
const (
	accentR = 47
	accentG = 128
	accentB = 237
)

// fontFiles maps non-default language codes to the bundled Noto font that
// can shape their script. Unknown codes fall back to Helvetica.
var fontFiles = map[string]string{
	"hi": "NotoSansDevanagari-Regular.ttf",
	"mr": "NotoSansDevanagari-Regular.ttf",
	"gu": "NotoSansGujarati-Regular.ttf",
	"ta": "NotoSansTamil-Regular.ttf",
	"te": "NotoSansTelugu-Regular.ttf",
	"kn": "NotoSansKannada-Regular.ttf",
	"ml": "NotoSansMalayalam-Regular.ttf",
	"bn": "NotoSansBengali-Regular.ttf",
}

// Renderer writes report PDFs into the reports directory.
type Renderer struct {
	reportsDir string
	fontsDir   string
	logger     *zap.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(reportsDir, fontsDir string, logger *zap.Logger) *Renderer {
	return &Renderer{
		reportsDir: reportsDir,
		fontsDir:   fontsDir,
		logger:     logger,
	}
}

// Render implements pipeline.Renderer. The output file is keyed by the
// summary's base name, so job <base> yields <base>_summary.pdf.
func (r *Renderer) Render(ctx context.Context, summaryPath, language string, doctor *entities.Doctor) (string, error) {
	b, err := os.ReadFile(summaryPath)
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}
	var summary entities.Summary
	if err := json.Unmarshal(b, &summary); err != nil {
		return "", fmt.Errorf("parse summary: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(summaryPath), ".json")
	outPath := filepath.Join(r.reportsDir, base+".pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	page := r.newPage(pdf, language)
	pdf.AddPage()

	page.letterhead(doctor)

	page.textSection("Doctor Summary", summary.DoctorSummary)
	page.listSection("Symptoms", summary.Symptoms)
	page.listSection("Patient History", summary.PatientHistory)
	page.listSection("Risk Factors", summary.RiskFactors)
	page.listSection("Prescription", summary.Prescription)
	page.listSection("Advice", summary.Advice)
	page.textSection("Recommended Action", summary.RecommendedAction)

	page.signatureBlock(doctor)

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("📄 report rendered",
			zap.String("path", outPath),
			zap.String("language", language),
		)
	}
	return outPath, nil
}

// page bundles the document with the selected font and the text encoder
// matching it.
type page struct {
	pdf  *fpdf.Fpdf
	font string
	// enc maps UTF-8 input to what the selected font can encode. Identity
	// for registered UTF-8 fonts, a codepage translator for Helvetica.
	enc func(string) string
}

// newPage selects the font for the language. Non-default languages register
// the bundled Noto font when present and fall back to Helvetica otherwise.
func (r *Renderer) newPage(pdf *fpdf.Fpdf, language string) *page {
	if language != "en" {
		if file, ok := fontFiles[language]; ok {
			path := filepath.Join(r.fontsDir, file)
			if _, err := os.Stat(path); err == nil {
				name := strings.TrimSuffix(file, ".ttf")
				pdf.AddUTF8Font(name, "", path)
				pdf.AddUTF8Font(name, "B", path)
				return &page{pdf: pdf, font: name, enc: func(s string) string { return s }}
			}
			if r.logger != nil {
				r.logger.Warn("report font missing, falling back to Helvetica",
					zap.String("language", language),
					zap.String("font", file),
				)
			}
		}
	}
	return &page{pdf: pdf, font: "Helvetica", enc: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *page) letterhead(doctor *entities.Doctor) {
	name := "Dr. Unknown"
	if doctor != nil && doctor.FullName != "" {
		name = doctor.FullName
	}

	p.pdf.SetFont(p.font, "B", 16)
	p.pdf.SetTextColor(accentR, accentG, accentB)
	p.pdf.CellFormat(0, 8, p.enc(name), "", 1, "C", false, 0, "")

	p.pdf.SetFont(p.font, "", 10)
	p.pdf.SetTextColor(0, 0, 0)
	if doctor != nil {
		if doctor.Degree != "" {
			p.pdf.CellFormat(0, 5, p.enc(doctor.Degree), "", 1, "C", false, 0, "")
		}
		if doctor.ClinicName != "" {
			p.pdf.CellFormat(0, 5, p.enc(doctor.ClinicName), "", 1, "C", false, 0, "")
		}
		p.pdf.CellFormat(0, 5, p.enc(contactLine(doctor)), "", 1, "C", false, 0, "")
	}

	p.pdf.Ln(4)
	p.divider()
	p.pdf.Ln(6)
}

// contactLine joins registration id, phone and location the way the printed
// letterhead expects them.
func contactLine(doctor *entities.Doctor) string {
	medicalID := doctor.MedicalID
	if medicalID == "" {
		medicalID = "N/A"
	}
	line := "Reg No: " + medicalID
	if doctor.PhoneNumber != "" {
		line += " | +91 " + doctor.PhoneNumber
	}
	if doctor.WorkLocation != "" {
		line += " | " + doctor.WorkLocation
	}
	return line
}

func (p *page) divider() {
	left, _, right, _ := p.pdf.GetMargins()
	pageW, _ := p.pdf.GetPageSize()
	y := p.pdf.GetY()
	p.pdf.SetDrawColor(accentR, accentG, accentB)
	p.pdf.SetLineWidth(0.8)
	p.pdf.Line(left, y, pageW-right, y)
}

func (p *page) heading(title string) {
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.SetTextColor(accentR, accentG, accentB)
	p.pdf.CellFormat(0, 7, p.enc(title), "", 1, "L", false, 0, "")
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(p.font, "", 10)
}

func (p *page) textSection(title, content string) {
	p.heading(title)
	if strings.TrimSpace(content) == "" {
		content = "—"
	}
	p.pdf.MultiCell(0, 5, p.enc(content), "", "L", false)
	p.pdf.Ln(4)
}

func (p *page) listSection(title string, items []string) {
	p.heading(title)
	if len(items) == 0 {
		p.pdf.MultiCell(0, 5, p.enc("—"), "", "L", false)
		p.pdf.Ln(4)
		return
	}
	for _, item := range items {
		p.pdf.MultiCell(0, 5, p.enc("- "+item), "", "L", false)
	}
	p.pdf.Ln(4)
}

func (p *page) signatureBlock(doctor *entities.Doctor) {
	name := "Dr. Unknown"
	if doctor != nil && doctor.FullName != "" {
		name = doctor.FullName
	}

	p.pdf.Ln(10)
	p.pdf.SetFont(p.font, "", 10)
	p.pdf.CellFormat(0, 5, p.enc("Date: "+time.Now().Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	p.pdf.Ln(6)
	p.pdf.CellFormat(0, 5, "Signature:", "", 1, "R", false, 0, "")
	p.pdf.Ln(8)
	p.pdf.CellFormat(0, 5, "______________________________", "", 1, "R", false, 0, "")
	p.pdf.SetFont(p.font, "B", 10)
	p.pdf.CellFormat(0, 5, p.enc(name), "", 1, "R", false, 0, "")
}
