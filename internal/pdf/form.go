// Package pdf renders the single-page membership application form.
package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
)

const (
	fontSize   = 10.0
	lineHeight = 5.0
	margin     = 18.0
	utf8Family = "DejaVu"
)

// Club is the header block printed at the top of the form.
type Club struct {
	Name    string
	Address string
	OIB     string
	IBAN    string
	Email   string
	Web     string
}

// Applicant is the member the form is issued for.
type Applicant struct {
	FullName     string
	DOB          string
	OIB          string
	Address      string
	AthleteEmail string
	ParentEmail  string
	Group        string
}

// statute is the fixed consent text printed under the identity block.
var statute = []string{
	"Potpisom ove pristupnice član, odnosno roditelj ili skrbnik maloljetnog člana, izjavljuje da pristupa klubu dobrovoljno, da je upoznat sa Statutom kluba te da prihvaća prava i obveze koje iz njega proizlaze.",
	"Član se obvezuje redovito podmirivati članarinu u iznosu koji utvrđuje Upravni odbor, dostaviti valjanu liječničku potvrdu o sposobnosti za treninge i natjecanja te poštivati pravila ponašanja na treninzima, natjecanjima i pripremama.",
	"Klub prikuplja i obrađuje osobne podatke člana (ime i prezime, datum rođenja, OIB, adresu, kontakt podatke, podatke o identifikacijskim ispravama te rezultate natjecanja) isključivo u svrhu vođenja evidencije članstva, prijava na natjecanja i izvještavanja nadležnim savezima, u skladu s Općom uredbom o zaštiti podataka (GDPR).",
	"Potpisnik daje privolu da se fotografije i video zapisi s treninga i natjecanja mogu objavljivati na mrežnim stranicama i društvenim mrežama kluba. Privola se može u svakom trenutku povući pisanom izjavom upućenom klubu.",
}

// Generator renders membership forms. FontPath points to a TTF with Croatian
// glyphs; when it cannot be read the core Helvetica font is used.
type Generator struct {
	FontPath string
	Log      *logrus.Logger
}

// NewGenerator returns a Generator using the TTF at fontPath.
func NewGenerator(fontPath string, log *logrus.Logger) *Generator {
	return &Generator{FontPath: fontPath, Log: log}
}

// MembershipForm writes the form for a to w.
func (g *Generator) MembershipForm(w io.Writer, club Club, a Applicant) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, margin)
	doc.SetTitle("Pristupnica - "+a.FullName, true)
	doc.AddPage()

	family, boldStyle, tr := g.setupFont(doc)
	pageW, _ := doc.GetPageSize()
	width := pageW - 2*margin
	measure := func(s string) float64 { return doc.GetStringWidth(tr(s)) }

	// Club header
	doc.SetFont(family, boldStyle, 14)
	doc.CellFormat(width, 7, tr(club.Name), "", 1, "C", false, 0, "")
	doc.SetFont(family, "", 9)
	for _, line := range []string{
		club.Address,
		joinNonEmpty("  |  ", prefixed("OIB: ", club.OIB), prefixed("IBAN: ", club.IBAN)),
		joinNonEmpty("  |  ", club.Email, club.Web),
	} {
		if line != "" {
			doc.CellFormat(width, 4.5, tr(line), "", 1, "C", false, 0, "")
		}
	}
	doc.Ln(3)
	x, y := doc.GetXY()
	doc.Line(x, y, x+width, y)
	doc.Ln(6)

	doc.SetFont(family, boldStyle, 13)
	doc.CellFormat(width, 7, tr("PRISTUPNICA I PRIVOLA"), "", 1, "C", false, 0, "")
	doc.Ln(3)

	// Identity block
	doc.SetFont(family, "", fontSize)
	fields := [][2]string{
		{"Ime i prezime", a.FullName},
		{"Datum rođenja", a.DOB},
		{"OIB", a.OIB},
		{"Adresa", a.Address},
		{"E-mail sportaša", a.AthleteEmail},
		{"E-mail roditelja", a.ParentEmail},
		{"Grupa", a.Group},
	}
	labelW := 42.0
	for _, f := range fields {
		doc.CellFormat(labelW, 6, tr(f[0]+":"), "", 0, "L", false, 0, "")
		lines := WrapText(measure, f[1], width-labelW)
		if len(lines) == 0 {
			lines = []string{""}
		}
		for i, l := range lines {
			if i > 0 {
				doc.SetX(margin + labelW)
			}
			doc.CellFormat(width-labelW, 6, tr(l), "B", 1, "L", false, 0, "")
		}
	}
	doc.Ln(6)

	// Statute and consent
	doc.SetFont(family, "", fontSize)
	for _, para := range statute {
		for _, l := range WrapText(measure, para, width) {
			doc.CellFormat(width, lineHeight, tr(l), "", 1, "L", false, 0, "")
		}
		doc.Ln(2.5)
	}

	// Signatures
	doc.Ln(12)
	half := (width - 20) / 2
	y = doc.GetY()
	doc.Line(margin, y, margin+half, y)
	doc.Line(margin+half+20, y, margin+width, y)
	doc.Ln(1.5)
	doc.CellFormat(half, 5, tr("Mjesto i datum"), "", 0, "C", false, 0, "")
	doc.SetX(margin + half + 20)
	doc.CellFormat(half, 5, tr("Potpis člana / roditelja ili skrbnika"), "", 1, "C", false, 0, "")

	if doc.Err() {
		return fmt.Errorf("render membership form: %w", doc.Error())
	}
	return doc.Output(w)
}

// setupFont registers the UTF-8 TTF if available and returns the family, the
// style used for headings and a text translator for the chosen font.
func (g *Generator) setupFont(doc *gofpdf.Fpdf) (family, bold string, tr func(string) string) {
	if g.FontPath != "" {
		b, err := os.ReadFile(g.FontPath)
		if err == nil {
			// An unparsable TTF is not registered and only surfaces on SetFont.
			doc.AddUTF8FontFromBytes(utf8Family, "", b)
			if !doc.Err() {
				doc.SetFont(utf8Family, "", fontSize)
			}
			if !doc.Err() {
				return utf8Family, "", func(s string) string { return s }
			}
			err = doc.Error()
			doc.ClearError()
		}
		if g.Log != nil && !errors.Is(err, os.ErrNotExist) {
			g.Log.WithError(err).WithField("font", g.FontPath).Warn("membership form: falling back to Helvetica")
		}
	}
	doc.SetFont("Helvetica", "", fontSize)
	return "Helvetica", "B", doc.UnicodeTranslatorFromDescriptor("")
}

// WrapText breaks text into lines no wider than width, as reported by measure.
// Newlines start a new paragraph; words wider than a whole line are split
// across lines.
func WrapText(measure func(string) float64, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			if strings.TrimSpace(text) != "" && len(lines) > 0 {
				lines = append(lines, "")
			}
			continue
		}
		cur := ""
		for _, word := range words {
			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if measure(candidate) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			for measure(word) > width {
				head := splitToWidth(measure, word, width)
				lines = append(lines, head)
				word = word[len(head):]
			}
			cur = word
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// splitToWidth returns the longest rune prefix of word that fits width, or
// the first rune alone when even that is too wide.
func splitToWidth(measure func(string) float64, word string, width float64) string {
	cut := 0
	for i := range word {
		if i == 0 {
			continue
		}
		if measure(word[:i]) > width {
			break
		}
		cut = i
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(word)
		return word[:size]
	}
	return word[:cut]
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
