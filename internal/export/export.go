// Package export rasterizes a preview model into an A4 PDF document.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"invoicer/internal/imagerelay"
	"invoicer/internal/logger"
	"invoicer/internal/preview"
)

const (
	// Margin is the page margin in millimetres on every side.
	Margin = 10.0

	defaultFileNumber = "0001"
	defaultFileClient = "Client"

	logoSize = 16.0
	lineH    = 5.0
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	pathSeparators = strings.NewReplacer("/", "-", `\`, "-")

	imageTypes = map[string]string{
		"image/png":  "PNG",
		"image/jpeg": "JPG",
		"image/jpg":  "JPG",
		"image/gif":  "GIF",
	}
)

// ImageInliner turns a remote image URL into a data URI.
type ImageInliner interface {
	FetchDataURI(ctx context.Context, url string) (string, error)
}

// Exporter renders preview models to PDF.
type Exporter struct {
	images ImageInliner
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithImageInliner sets the relay used to inline the client logo.
func WithImageInliner(images ImageInliner) Option {
	return func(e *Exporter) { e.images = images }
}

// WithClock replaces the clock stamped into the document metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New returns an Exporter. Without an ImageInliner only data URI logos are
// drawn as images.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		now: time.Now,
		log: logger.WithComponent("export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileName returns "Invoice_<number>_<client>.pdf" with whitespace runs in the
// client name replaced by "_". Empty values fall back to "0001" and "Client".
func FileName(number, client string) string {
	if number == "" {
		number = defaultFileNumber
	}
	if client == "" {
		client = defaultFileClient
	}
	name := fmt.Sprintf("Invoice_%s_%s.pdf", number, whitespace.ReplaceAllString(client, "_"))
	return pathSeparators.Replace(name)
}

// WriteFile renders m into dir/name and returns the written path.
func (e *Exporter) WriteFile(ctx context.Context, m preview.Model, dir, name string) (string, error) {
	const op = "WriteFile"

	var buf bytes.Buffer
	if err := e.Render(ctx, m, &buf); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: failed to create export directory: %w", op, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%s: failed to write %s: %w", op, path, err)
	}

	e.log.Info().
		Str("path", path).
		Int("bytes", buf.Len()).
		Msg("Invoice exported")

	return path, nil
}

// Render writes m as a single A4 portrait PDF to w. A client logo that cannot
// be inlined is drawn as its initial instead.
func (e *Exporter) Render(ctx context.Context, m preview.Model, w io.Writer) error {
	const op = "Render"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(true, Margin)
	pdf.SetCreationDate(e.now())
	pdf.SetTitle("Invoice "+m.Number, true)
	pdf.SetAuthor(m.Company.Name, true)
	pdf.SetCreator("invoicer", false)

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	r.contentW = pageW - 2*Margin

	r.header(m)
	r.parties(m, e.clientLogo(ctx, pdf, m.Client.Logo))
	r.items(m)
	r.totals(m)
	r.note(m)
	r.footer(m)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%s: failed to render PDF: %w", op, err)
	}
	return nil
}

// clientLogo registers the client logo image and returns its name, or "" when
// the initial should be drawn.
func (e *Exporter) clientLogo(ctx context.Context, pdf *gofpdf.Fpdf, logo preview.Logo) string {
	if !logo.IsImage() {
		return ""
	}

	uri := logo.ImageURL
	if !strings.HasPrefix(uri, "data:") {
		if e.images == nil {
			e.log.Warn().Str("url", uri).Msg("No image relay configured, using initial")
			return ""
		}
		inlined, err := e.images.FetchDataURI(ctx, uri)
		if err != nil {
			e.log.Warn().Err(err).Str("url", uri).Msg("Failed to inline client logo, using initial")
			return ""
		}
		uri = inlined
	}

	contentType, data, err := imagerelay.DecodeDataURI(uri)
	if err != nil {
		e.log.Warn().Err(err).Msg("Client logo is not a valid data URI, using initial")
		return ""
	}
	imageType, ok := imageTypes[contentType]
	if !ok {
		e.log.Warn().Str("content_type", contentType).Msg("Unsupported logo image type, using initial")
		return ""
	}

	const name = "client-logo"
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if pdf.Err() {
		e.log.Warn().Err(pdf.Error()).Msg("Failed to decode client logo, using initial")
		pdf.ClearError()
		return ""
	}
	return name
}

type renderer struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	contentW float64
}

func (r *renderer) text(w, h float64, s, align string, ln int) {
	r.pdf.CellFormat(w, h, r.tr(s), "", ln, align, false, 0, "")
}

func (r *renderer) header(m preview.Model) {
	pdf := r.pdf
	top := pdf.GetY()

	r.initial(Margin, top, m.Company.Logo.Initial)

	pdf.SetXY(Margin+logoSize+4, top)
	pdf.SetFont("Helvetica", "B", 14)
	r.text(90, 7, m.Company.Name, "L", 2)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	r.text(90, lineH, m.Company.Email, "L", 2)
	for _, line := range m.Company.AddressLines() {
		r.text(90, lineH, line, "L", 2)
	}
	leftBottom := pdf.GetY()

	rightW := 70.0
	rightX := Margin + r.contentW - rightW
	pdf.SetXY(rightX, top)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 20)
	r.text(rightW, 9, "INVOICE", "R", 2)
	pdf.SetFont("Helvetica", "", 10)
	r.text(rightW, 6, "#"+m.Number, "R", 2)
	pdf.SetFont("Helvetica", "", 9)
	r.text(rightW, lineH, "Issue date: "+m.IssueDate, "R", 2)
	r.text(rightW, lineH, "Due date: "+m.DueDate, "R", 2)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(max(leftBottom, pdf.GetY(), top+logoSize) + 8)
}

func (r *renderer) parties(m preview.Model, clientImage string) {
	pdf := r.pdf

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(120, 120, 120)
	r.text(r.contentW, lineH, "BILL TO", "L", 1)
	pdf.Ln(1)

	top := pdf.GetY()
	if clientImage != "" {
		pdf.ImageOptions(clientImage, Margin, top, logoSize, logoSize, false, gofpdf.ImageOptions{}, 0, "")
	} else {
		r.initial(Margin, top, m.Client.Logo.Initial)
	}

	x := Margin + logoSize + 4
	pdf.SetXY(x, top)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	r.text(120, 6, m.Client.Name, "L", 2)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	r.text(120, lineH, m.Client.Email, "L", 2)
	for _, line := range m.Client.AddressLines() {
		r.text(120, lineH, line, "L", 2)
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(max(pdf.GetY(), top+logoSize) + 8)
}

func (r *renderer) items(m preview.Model) {
	pdf := r.pdf
	qtyW, priceW, amountW := 20.0, 35.0, 35.0
	descW := r.contentW - qtyW - priceW - amountW

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(descW, 8, "Description", "", 0, "L", true, 0, "")
	pdf.CellFormat(qtyW, 8, "Qty", "", 0, "R", true, 0, "")
	pdf.CellFormat(priceW, 8, "Unit Price", "", 0, "R", true, 0, "")
	pdf.CellFormat(amountW, 8, "Amount", "", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetDrawColor(220, 220, 220)
	for _, line := range m.LineItems {
		desc := r.tr(line.Description)
		rows := pdf.SplitLines([]byte(desc), descW-2)
		h := float64(max(len(rows), 1)) * lineH
		if h < 7 {
			h = 7
		}

		y := pdf.GetY()
		pdf.MultiCell(descW, h/float64(max(len(rows), 1)), desc, "", "L", false)
		pdf.SetXY(Margin+descW, y)
		r.text(qtyW, h, line.Quantity, "R", 0)
		r.text(priceW, h, line.UnitPrice, "R", 0)
		r.text(amountW, h, line.Amount, "R", 1)
		pdf.Line(Margin, y+h, Margin+r.contentW, y+h)
	}
	pdf.Ln(4)
}

func (r *renderer) totals(m preview.Model) {
	pdf := r.pdf
	labelW, amountW := 45.0, 35.0
	x := Margin + r.contentW - labelW - amountW

	row := func(label, amount string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetX(x)
		pdf.SetFont("Helvetica", style, 10)
		r.text(labelW, 6, label, "L", 0)
		r.text(amountW, 6, amount, "R", 1)
	}

	row("Subtotal", m.Subtotal, false)
	if m.Discount.Visible {
		row(m.Discount.Label, m.Discount.Amount, false)
	}
	if m.Tax.Visible {
		row(m.Tax.Label, m.Tax.Amount, false)
	}
	pdf.Line(x, pdf.GetY()+1, Margin+r.contentW, pdf.GetY()+1)
	pdf.Ln(2)
	row("Total", m.Total, true)
	pdf.Ln(6)
}

func (r *renderer) note(m preview.Model) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(120, 120, 120)
	r.text(r.contentW, lineH, "NOTE", "L", 1)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(r.contentW, lineH, r.tr(m.Note), "", "L", false)
	pdf.Ln(6)
}

func (r *renderer) footer(m preview.Model) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(140, 140, 140)
	pdf.MultiCell(r.contentW, 4, r.tr(m.Footer), "T", "C", false)
}

// initial draws a filled circle holding a single letter.
func (r *renderer) initial(x, y float64, letter string) {
	pdf := r.pdf
	radius := logoSize / 2

	pdf.SetFillColor(30, 30, 30)
	pdf.Circle(x+radius, y+radius, radius, "F")

	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(255, 255, 255)
	r.text(logoSize, logoSize, strings.ToUpper(letter), "C", 0)
	pdf.SetTextColor(0, 0, 0)
}
