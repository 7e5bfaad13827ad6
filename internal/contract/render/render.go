// Package render turns a finalized contract payload into the archived PDF.
// Layout is fixed per document type; the payload only supplies text.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"pactum/internal/contract"
	dErrors "pactum/pkg/domain-errors"
)

const (
	titleMain = "Software Development Agreement"
	titleNDA  = "Mutual Non-Disclosure Agreement"

	signedMarker   = "[Digitally Signed]"
	unsignedMarker = "_________________"
)

type Renderer struct{}

func New() *Renderer { return &Renderer{} }

// RenderMain renders the main contract: title, parties table, then every
// section title and clause text verbatim.
func (r *Renderer) RenderMain(payload contract.Payload, companySigned, clientSigned bool) ([]byte, error) {
	pdf := newDocument(titleMain)
	writeParties(pdf, payload, companySigned, clientSigned)

	if len(payload.Sections) > 0 {
		heading(pdf, "CONTRACT TERMS")
		for _, section := range payload.Sections {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 5, section.Title, "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			for _, clause := range section.Clauses {
				pdf.MultiCell(0, 5, clause.Text, "", "L", false)
			}
			pdf.Ln(2)
		}
	}
	return output(pdf, "contract")
}

// RenderNDA renders the NDA: title, parties table, the four variable fields,
// and the fixed terms.
func (r *Renderer) RenderNDA(payload contract.Payload, companySigned, clientSigned bool) ([]byte, error) {
	pdf := newDocument(titleNDA)
	writeParties(pdf, payload, companySigned, clientSigned)

	heading(pdf, "VARIABLES")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, "Purpose: "+payload.Purpose, "", "L", false)
	pdf.MultiCell(0, 5, "Confidentiality period: "+payload.Duration, "", "L", false)
	pdf.MultiCell(0, 5, "Dispute Resolution: "+payload.DisputeResolution, "", "L", false)
	pdf.MultiCell(0, 5, "Special Provisions: "+payload.Provisions, "", "L", false)
	pdf.Ln(4)

	heading(pdf, "TERMS")
	pdf.SetFont("Helvetica", "", 10)
	for _, term := range []string{
		"1. Confidential Information: Information disclosed in connection with the Purpose.",
		"2. Permitted Receivers: Need-to-know basis only.",
		"3. Obligations: Use for Purpose only; keep secure; destroy on request.",
		"4. Governing Law: Arab Republic of Egypt.",
	} {
		pdf.MultiCell(0, 5, term, "", "L", false)
	}
	return output(pdf, "NDA")
}

func newDocument(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Fixed creation date keeps renders byte-identical for identical input.
	pdf.SetCreationDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, title, "", "L", false)
	pdf.Ln(4)
	return pdf
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(0, 5, text, "", "L", false)
	pdf.Ln(1)
}

// writeParties draws the two-column PARTIES AND EXECUTION table: company
// (Party A) left, client (Party B) right.
func writeParties(pdf *gofpdf.Fpdf, payload contract.Payload, companySigned, clientSigned bool) {
	heading(pdf, "PARTIES AND EXECUTION")

	pageWidth, _ := pdf.GetPageSize()
	marginL, _, marginR, _ := pdf.GetMargins()
	colWidth := (pageWidth - marginL - marginR) / 2

	x := marginL
	top := pdf.GetY()
	bottomA := partyCell(pdf, x, top, colWidth, payload.PartyA, companySigned)
	bottomB := partyCell(pdf, x+colWidth, top, colWidth, payload.PartyB, clientSigned)

	bottom := bottomA
	if bottomB > bottom {
		bottom = bottomB
	}
	pdf.SetXY(marginL, bottom)
	pdf.Ln(4)
}

func partyCell(pdf *gofpdf.Fpdf, x, y, width float64, party *contract.Party, signed bool) float64 {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(x, y)

	lines := []string{"Entity details: ", "Name: ", "Title: ", "Email: "}
	if party != nil {
		lines = []string{
			"Entity details: " + party.Details,
			"Name: " + party.Signatory,
			"Title: " + party.Title,
			"Email: " + party.Email,
		}
	}
	marker := unsignedMarker
	if signed {
		marker = signedMarker
	}
	lines = append(lines, "Signature: "+marker)

	for _, line := range lines {
		pdf.SetX(x)
		pdf.MultiCell(width, 5, line, "", "L", false)
	}
	return pdf.GetY()
}

func output(pdf *gofpdf.Fpdf, docType string) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to generate %s PDF", docType))
	}
	return buf.Bytes(), nil
}
