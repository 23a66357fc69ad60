// Package report renders assessment reports as PDF documents.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/kidslab/kidsmove/internal/fms"
	"github.com/kidslab/kidsmove/internal/services"
)

const (
	unicodeFamily = "report-unicode"
	coreFamily    = "Helvetica"

	pageMargin = 15.0
	lineHeight = 7.0
	barWidth   = 60.0
)

var (
	accent = [3]int{14, 165, 233}
	muted  = [3]int{107, 114, 128}
	panel  = [3]int{248, 250, 252}
	track  = [3]int{226, 232, 240}
)

// Renderer writes A4 assessment reports. With a UTF-8 TrueType font it prints Japanese labels,
// otherwise it falls back to the core Helvetica font and English labels.
type Renderer struct {
	font []byte
}

// Option customises a Renderer.
type Option func(*Renderer) error

// WithFontFile loads a UTF-8 TrueType font from path. An empty path is ignored.
func WithFontFile(path string) Option {
	return func(r *Renderer) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("report: read font: %w", err)
		}
		r.font = data
		return nil
	}
}

// WithFontBytes uses an in-memory UTF-8 TrueType font.
func WithFontBytes(data []byte) Option {
	return func(r *Renderer) error {
		r.font = data
		return nil
	}
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Unicode reports whether a UTF-8 font is configured.
func (r *Renderer) Unicode() bool {
	return len(r.font) > 0
}

// Render writes report to w as a PDF document.
func (r *Renderer) Render(w io.Writer, report *services.Report) error {
	if report == nil {
		return fmt.Errorf("report: nothing to render")
	}

	doc := newDocument(r)
	doc.header(report)
	doc.childInfo(report)
	doc.movements(report)
	doc.measures(report)
	doc.memo(report)

	if err := doc.pdf.Output(w); err != nil {
		return fmt.Errorf("report: write pdf: %w", err)
	}
	return nil
}

type document struct {
	pdf     *fpdf.Fpdf
	family  string
	unicode bool
	text    func(string) string
}

func newDocument(r *Renderer) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreator("KidsMove", true)

	d := &document{pdf: pdf, family: coreFamily, text: pdf.UnicodeTranslatorFromDescriptor("")}
	if r.Unicode() {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", r.font)
		d.family = unicodeFamily
		d.unicode = true
		d.text = func(s string) string { return s }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		d.font(8, muted)
		pdf.CellFormat(150, 5, d.text(d.pick("KidsMove 運動能力評価レポート", "KidsMove motor skill report")), "T", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()
	return d
}

// pick chooses the Japanese or English variant of a label.
func (d *document) pick(ja, en string) string {
	if d.unicode {
		return ja
	}
	return en
}

func (d *document) font(size float64, color [3]int) {
	d.pdf.SetFont(d.family, "", size)
	d.pdf.SetTextColor(color[0], color[1], color[2])
}

func (d *document) header(report *services.Report) {
	d.pdf.SetTitle(d.pick("運動能力評価レポート", "Motor Skill Assessment Report"), d.unicode)

	d.font(20, [3]int{17, 24, 39})
	d.pdf.CellFormat(0, 10, d.text(d.pick("運動能力評価レポート", "Motor Skill Assessment Report")), "", 1, "L", false, 0, "")
	d.font(11, muted)
	d.pdf.CellFormat(0, 6, d.text(d.pick("評価日: ", "Assessed on: ")+report.AssessedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")

	d.pdf.SetDrawColor(accent[0], accent[1], accent[2])
	d.pdf.SetLineWidth(0.6)
	y := d.pdf.GetY() + 2
	d.pdf.Line(pageMargin, y, 210-pageMargin, y)
	d.pdf.SetLineWidth(0.2)
	d.pdf.Ln(6)
}

func (d *document) childInfo(report *services.Report) {
	child := report.Child
	ageText := child.AgeLabel
	if !d.unicode {
		ageText = fmt.Sprintf("%d years %d months", child.Age.Years, child.Age.Months)
	}

	rows := [][2]string{
		{d.pick("氏名", "Name"), child.DisplayName},
		{d.pick("生年月日", "Birthdate"), child.Birthdate},
		{d.pick("年齢", "Age"), ageText},
	}
	if child.Grade != nil && *child.Grade != "" {
		rows = append(rows, [2]string{d.pick("学年", "Grade"), *child.Grade})
	}
	rows = append(rows, [2]string{d.pick("担当コーチ", "Coach"), report.CoachName})

	d.pdf.SetFillColor(panel[0], panel[1], panel[2])
	for _, row := range rows {
		d.font(10, muted)
		d.pdf.CellFormat(35, lineHeight, d.text(row[0]), "", 0, "L", true, 0, "")
		d.font(10, [3]int{17, 24, 39})
		d.pdf.CellFormat(0, lineHeight, d.text(row[1]), "", 1, "L", true, 0, "")
	}
	d.pdf.Ln(4)
}

func (d *document) section(title string) {
	d.font(13, [3]int{17, 24, 39})
	d.pdf.CellFormat(0, 8, d.text(title), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) movements(report *services.Report) {
	d.section(d.pick("基礎運動スキル (FMS)", "Fundamental Movement Skills (FMS)"))

	d.pdf.SetFillColor(241, 245, 249)
	d.font(9, muted)
	d.pdf.CellFormat(40, lineHeight, d.text(d.pick("項目", "Movement")), "", 0, "L", true, 0, "")
	d.pdf.CellFormat(15, lineHeight, d.text(d.pick("点数", "Score")), "", 0, "C", true, 0, "")
	d.pdf.CellFormat(barWidth+5, lineHeight, "", "", 0, "L", true, 0, "")
	d.pdf.CellFormat(0, lineHeight, d.text(d.pick("段階", "Stage")), "", 1, "L", true, 0, "")

	for _, m := range report.Movements {
		label, stage := m.EnglishLabel, m.EnglishStage
		if d.unicode {
			label, stage = m.Label, m.Stage
		}

		d.font(10, [3]int{17, 24, 39})
		d.pdf.CellFormat(40, lineHeight, d.text(label), "", 0, "L", false, 0, "")
		d.pdf.CellFormat(15, lineHeight, fmt.Sprintf("%d / %d", m.Score, fms.MaxScore), "", 0, "C", false, 0, "")
		d.bar(m.Score)
		d.font(8, muted)
		d.pdf.CellFormat(0, lineHeight, d.text(stage), "", 1, "L", false, 0, "")
	}

	d.font(11, [3]int{17, 24, 39})
	total := fmt.Sprintf("%s: %d / %d", d.pick("合計", "Total"), report.FMSTotal, fms.MaxScore*len(fms.Categories))
	d.pdf.CellFormat(0, 9, d.text(total), "T", 1, "R", false, 0, "")
	d.pdf.Ln(3)
}

// bar draws a horizontal score bar and advances the cursor past it.
func (d *document) bar(score int) {
	x, y := d.pdf.GetXY()
	top := y + 2
	height := lineHeight - 4

	d.pdf.SetFillColor(track[0], track[1], track[2])
	d.pdf.Rect(x, top, barWidth, height, "F")
	if score > 0 {
		filled := barWidth * float64(score) / float64(fms.MaxScore)
		d.pdf.SetFillColor(accent[0], accent[1], accent[2])
		d.pdf.Rect(x, top, filled, height, "F")
	}
	d.pdf.SetX(x + barWidth + 5)
}

func (d *document) measures(report *services.Report) {
	if len(report.Measures) == 0 {
		return
	}
	d.section(d.pick("補足測定 (SMC)", "Supplementary Measures (SMC)"))

	for _, m := range report.Measures {
		label, unit := m.EnglishLabel, m.EnglishUnit
		if d.unicode {
			label, unit = m.Label, m.Unit
		}
		value := "-"
		if m.Value != nil {
			value = strconv.FormatFloat(*m.Value, 'f', 1, 64) + " " + unit
		}

		d.font(10, muted)
		d.pdf.CellFormat(60, lineHeight, d.text(label), "", 0, "L", false, 0, "")
		d.font(12, accent)
		d.pdf.CellFormat(0, lineHeight, d.text(value), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(3)
}

func (d *document) memo(report *services.Report) {
	if report.Memo == nil || strings.TrimSpace(*report.Memo) == "" {
		return
	}
	d.section(d.pick("コーチからのメモ", "Coach notes"))
	d.pdf.SetFillColor(255, 251, 235)
	d.font(10, [3]int{17, 24, 39})
	d.pdf.MultiCell(0, 6, d.text(*report.Memo), "", "L", true)
}
