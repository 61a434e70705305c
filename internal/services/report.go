package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"gorm.io/gorm"
)

// yearExpr is the calendar year of a competition's start date.
const yearExpr = "substr(c.date_from, 1, 4)"

const medalSums = "SUM(CASE WHEN r.placement = 1 THEN 1 ELSE 0 END) AS gold, " +
	"SUM(CASE WHEN r.placement = 2 THEN 1 ELSE 0 END) AS silver, " +
	"SUM(CASE WHEN r.placement = 3 THEN 1 ELSE 0 END) AS bronze"

// ReportFilter restricts aggregations to competitions matching every
// non-empty list.
type ReportFilter struct {
	Years         []string `json:"years"`
	AgeCategories []string `json:"age_categories"`
	Kinds         []string `json:"kinds"`
}

func (f ReportFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.Years) > 0 {
		q = q.Where(yearExpr+" IN ?", f.Years)
	}
	if len(f.AgeCategories) > 0 {
		q = q.Where("c.age_category IN ?", f.AgeCategories)
	}
	if len(f.Kinds) > 0 {
		q = q.Where("c.kind IN ?", f.Kinds)
	}
	return q
}

type YearCount struct {
	Year         string `json:"year"`
	Competitions int    `json:"competitions"`
}

// CrossTab counts competitions by age category (rows) and kind (columns).
// Counts[i][j] belongs to Rows[i] and Columns[j]; absent pairs are zero.
type CrossTab struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

type MedalRow struct {
	Label  string `json:"label"`
	Gold   int    `json:"gold"`
	Silver int    `json:"silver"`
	Bronze int    `json:"bronze"`
}

// MedalTally holds three independent breakdowns of the same medals.
type MedalTally struct {
	ByYear        []MedalRow `json:"by_year"`
	ByAgeCategory []MedalRow `json:"by_age_category"`
	ByKind        []MedalRow `json:"by_kind"`
}

type FightRow struct {
	Year   string `json:"year"`
	Starts int    `json:"starts"`
	Fights int    `json:"fights"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// HistoryRow is one result of an athlete with its competition.
type HistoryRow struct {
	CompetitionID uint   `json:"competition_id"`
	DateFrom      string `json:"date_from"`
	Competition   string `json:"competition"`
	Kind          string `json:"kind"`
	Place         string `json:"place"`
	AgeCategory   string `json:"age_category"`
	Category      string `json:"category"`
	Style         string `json:"style"`
	FightsTotal   int    `json:"fights_total"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Placement     int    `json:"placement"`
}

// Medal classifies the placement.
func (h HistoryRow) Medal() string {
	r := models.Result{Placement: h.Placement}
	return r.Medal()
}

type ReportService struct{ DB *gorm.DB }

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{DB: db} }

func (s *ReportService) competitions() *gorm.DB {
	return s.DB.Table("competitions AS c")
}

func (s *ReportService) joined() *gorm.DB {
	return s.DB.Table("results AS r").Joins("JOIN competitions c ON c.id = r.competition_id")
}

// CompetitionsPerYear counts competitions per year, oldest first.
func (s *ReportService) CompetitionsPerYear(f ReportFilter) ([]YearCount, error) {
	out := []YearCount{}
	err := f.apply(s.competitions()).
		Select(yearExpr + " AS year, COUNT(*) AS competitions").
		Group(yearExpr).
		Order(yearExpr).
		Scan(&out).Error
	return out, err
}

// CategoryKindCrossTab counts competitions by age category and kind. Rows and
// columns follow the canonical category and kind order; values outside it
// come after, alphabetically.
func (s *ReportService) CategoryKindCrossTab(f ReportFilter) (*CrossTab, error) {
	var cells []struct {
		AgeCategory string
		Kind        string
		N           int
	}
	err := f.apply(s.competitions()).
		Select("c.age_category, c.kind, COUNT(*) AS n").
		Group("c.age_category, c.kind").
		Scan(&cells).Error
	if err != nil {
		return nil, err
	}
	var cats, kinds []string
	for _, c := range cells {
		if !slices.Contains(cats, c.AgeCategory) {
			cats = append(cats, c.AgeCategory)
		}
		if !slices.Contains(kinds, c.Kind) {
			kinds = append(kinds, c.Kind)
		}
	}
	tab := &CrossTab{
		Rows:    canonicalOrder(cats, models.AgeCategories),
		Columns: canonicalOrder(kinds, models.CompetitionKinds),
	}
	tab.Counts = make([][]int, len(tab.Rows))
	for i := range tab.Counts {
		tab.Counts[i] = make([]int, len(tab.Columns))
	}
	for _, c := range cells {
		i := slices.Index(tab.Rows, c.AgeCategory)
		j := slices.Index(tab.Columns, c.Kind)
		tab.Counts[i][j] += c.N
	}
	return tab, nil
}

// canonicalOrder sorts values by their position in canon, unknown values last.
func canonicalOrder(values, canon []string) []string {
	out := slices.Clone(values)
	if out == nil {
		out = []string{}
	}
	rank := func(v string) int {
		if i := slices.Index(canon, v); i >= 0 {
			return i
		}
		return len(canon)
	}
	slices.SortFunc(out, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return out
}

// MedalTally sums gold, silver and bronze by year, by age category and by kind.
func (s *ReportService) MedalTally(f ReportFilter) (*MedalTally, error) {
	by := func(expr string) ([]MedalRow, error) {
		out := []MedalRow{}
		err := f.apply(s.joined()).
			Select(expr + " AS label, " + medalSums).
			Group(expr).
			Order(expr).
			Scan(&out).Error
		return out, err
	}
	var t MedalTally
	var err error
	if t.ByYear, err = by(yearExpr); err != nil {
		return nil, err
	}
	if t.ByAgeCategory, err = by("c.age_category"); err != nil {
		return nil, err
	}
	if t.ByKind, err = by("c.kind"); err != nil {
		return nil, err
	}
	return &t, nil
}

// FightTotals sums starts, fights, wins and losses per year.
func (s *ReportService) FightTotals(f ReportFilter) ([]FightRow, error) {
	out := []FightRow{}
	err := f.apply(s.joined()).
		Select(yearExpr + " AS year, COUNT(r.id) AS starts, " +
			"COALESCE(SUM(r.fights_total), 0) AS fights, " +
			"COALESCE(SUM(r.wins), 0) AS wins, " +
			"COALESCE(SUM(r.losses), 0) AS losses").
		Group(yearExpr).
		Order(yearExpr).
		Scan(&out).Error
	return out, err
}

// AthleteHistory lists a member's results, newest competition first. A
// non-empty year keeps only that calendar year.
func (s *ReportService) AthleteHistory(memberID uint, year string) ([]HistoryRow, error) {
	q := s.joined().
		Select("c.id AS competition_id, c.date_from, c.name AS competition, c.kind, c.place, c.age_category, " +
			"r.category, r.style, r.fights_total, r.wins, r.losses, r.placement").
		Where("r.member_id = ?", memberID)
	if year != "" {
		q = q.Where(yearExpr+" = ?", year)
	}
	out := []HistoryRow{}
	err := q.Order("c.date_from DESC, c.id DESC").Scan(&out).Error
	return out, err
}

// YearSummary groups one year's results by kind, age category and style.
func (s *ReportService) YearSummary(year string) (*spreadsheet.Table, error) {
	rows, err := s.joined().
		Select("c.kind AS vrsta, c.age_category AS uzrast, r.style AS stil, "+
			"COUNT(DISTINCT c.id) AS natjecanja, COUNT(r.id) AS nastupa, "+
			"SUM(r.fights_total) AS borbi, SUM(r.wins) AS pobjeda, SUM(r.losses) AS poraza, "+
			"SUM(CASE WHEN r.placement = 1 THEN 1 ELSE 0 END) AS zlato, "+
			"SUM(CASE WHEN r.placement = 2 THEN 1 ELSE 0 END) AS srebro, "+
			"SUM(CASE WHEN r.placement = 3 THEN 1 ELSE 0 END) AS bronca").
		Where(yearExpr+" = ?", year).
		Group("c.kind, c.age_category, r.style").
		Order("c.kind, c.age_category, r.style").
		Rows()
	if err != nil {
		return nil, err
	}
	return spreadsheet.TableFromRows(fmt.Sprintf("Statistika %s", year), rows)
}

// YearCountTable renders year counts as a spreadsheet.
func YearCountTable(rows []YearCount) *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: "Natjecanja po godini", Columns: []string{"godina", "natjecanja"}, Rows: [][]any{}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Year, r.Competitions})
	}
	return t
}

// Table renders the cross tabulation with the age category as first column.
func (c *CrossTab) Table() *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: "Uzrast x vrsta", Columns: append([]string{"uzrast"}, c.Columns...), Rows: [][]any{}}
	for i, row := range c.Rows {
		line := []any{row}
		for _, n := range c.Counts[i] {
			line = append(line, n)
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}

// MedalTable renders one medal breakdown; label names its first column.
func MedalTable(sheet, label string, rows []MedalRow) *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: sheet, Columns: []string{label, "zlato", "srebro", "bronca"}, Rows: [][]any{}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Label, r.Gold, r.Silver, r.Bronze})
	}
	return t
}

func FightTable(rows []FightRow) *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: "Borbe po godini", Columns: []string{"godina", "nastupa", "borbi", "pobjeda", "poraza"}, Rows: [][]any{}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Year, r.Starts, r.Fights, r.Wins, r.Losses})
	}
	return t
}

func HistoryTable(name string, rows []HistoryRow) *spreadsheet.Table {
	t := &spreadsheet.Table{
		Sheet:   name,
		Columns: []string{"datum", "natjecanje", "vrsta", "mjesto", "uzrast", "kategorija", "stil", "borbi", "pobjeda", "poraza", "plasman"},
		Rows:    [][]any{},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.DateFrom, r.Competition, r.Kind, r.Place, r.AgeCategory, r.Category, r.Style, r.FightsTotal, r.Wins, r.Losses, r.Placement})
	}
	return t
}
