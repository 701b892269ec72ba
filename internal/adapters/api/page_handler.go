package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"mares.app/internal/core/calendar"
	"mares.app/internal/core/tide"
	"mares.app/pkg/errors"
	"mares.app/pkg/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	dayPathPattern  = regexp.MustCompile(`^(\d+)-(\d+)-(\d+)$`)
	yearPathPattern = regexp.MustCompile(`^\d{1,4}$`)
)

var templateFuncs = template.FuncMap{
	"isoDate": func(t time.Time) string { return t.Format(validation.ISODateLayout) },
	"brDate":  func(t time.Time) string { return t.Format("02/01/2006") },
	"dayPath": dayPath,
	"weekday": func(t time.Time) string { return calendar.WeekdayName(t.Weekday()) },
	"dict":    dict,
}

// dict builds a map from key/value pairs so partials can take several arguments
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict expects key/value pairs")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}

// dayPath is the URL of the day detail page for date
func dayPath(t time.Time) string {
	return fmt.Sprintf("/dia/%d-%d-%d/", t.Year(), int(t.Month()), t.Day())
}

// tideView is one reading ready for display
type tideView struct {
	Order  int
	Time   string
	Height string
	Kind   string
	Label  string
}

type cellView struct {
	Date     time.Time
	Day      int
	InMonth  bool
	HasData  bool
	Selected bool
	Today    bool
	Tides    []tideView
}

type monthView struct {
	Name   string
	Number int
	Weeks  [][]cellView
}

type layoutView struct {
	Title        string
	TownName     string
	CanonicalURL string
	Year         int
}

type dayView struct {
	layoutView
	Date             time.Time
	Weekday          string
	MonthName        string
	Tides            []tideView
	HasData          bool
	ShareText        string
	WhatsAppShareURL string
}

type indexView struct {
	dayView
	Today          time.Time
	Month          monthView
	WeekdayHeaders []string
	MonthOptions   []calendar.MonthOption
	PrevLink       string
	NextLink       string
	TodayLink      string
	PrevMonthLink  string
	NextMonthLink  string
}

type calendarView struct {
	layoutView
	Months         []monthView
	WeekdayHeaders []string
	PrevYear       int
	NextYear       int
}

func tideViews(readings []tide.ClassifiedReading) []tideView {
	views := make([]tideView, 0, len(readings))
	for _, r := range readings {
		views = append(views, tideView{
			Order:  r.Order,
			Time:   r.Time.String(),
			Height: tide.FormatHeight(r.Height),
			Kind:   string(r.Kind),
			Label:  r.Label(),
		})
	}
	return views
}

func (s *HTTPServerAdapter) monthView(m calendar.Month, selected, today time.Time) monthView {
	view := monthView{
		Name:   m.Name,
		Number: int(m.Number),
		Weeks:  make([][]cellView, 0, len(m.Weeks)),
	}
	for _, week := range m.Weeks {
		cells := make([]cellView, 0, len(week))
		for _, cell := range week {
			cells = append(cells, cellView{
				Date:     cell.Date,
				Day:      cell.Date.Day(),
				InMonth:  cell.InMonth,
				HasData:  cell.HasData,
				Selected: cell.Date.Equal(selected),
				Today:    cell.Date.Equal(today),
				Tides:    tideViews(cell.Readings),
			})
		}
		view.Weeks = append(view.Weeks, cells)
	}
	return view
}

// today is the current calendar date in the site's timezone
func (s *HTTPServerAdapter) today() time.Time {
	now := s.clock.Now().In(s.location)
	return tide.DateOf(now.Year(), now.Month(), now.Day())
}

func (s *HTTPServerAdapter) canonicalURL(c *gin.Context) string {
	return strings.TrimRight(s.site.BaseURL, "/") + c.Request.URL.Path
}

func (s *HTTPServerAdapter) layout(c *gin.Context, title string, year int) layoutView {
	return layoutView{
		Title:        title,
		TownName:     s.site.TownName,
		CanonicalURL: s.canonicalURL(c),
		Year:         year,
	}
}

func (s *HTTPServerAdapter) shareOptions() tide.ShareOptions {
	return tide.ShareOptions{Town: s.site.TownName, URL: s.site.ShareURL}
}

// newDayView fills the day section shared by the home and day pages.
// day is nil when nothing is stored for date.
func (s *HTTPServerAdapter) newDayView(c *gin.Context, date time.Time, day *tide.Day) dayView {
	view := dayView{
		layoutView: s.layout(c, fmt.Sprintf("Tábua de marés de %s - %s", s.site.TownName, date.Format("02/01/2006")), date.Year()),
		Date:       date,
		MonthName:  calendar.MonthName(date.Month()),
		Tides:      []tideView{},
	}
	if day != nil {
		view.Weekday = day.Weekday
		view.Tides = tideViews(day.Classified())
		view.HasData = true
	}
	view.ShareText = tide.ShareText(s.shareOptions(), date, day)
	view.WhatsAppShareURL = tide.WhatsAppShareURL(view.ShareText)
	return view
}

// indexPage handles GET / with an optional ?date=YYYY-MM-DD
func (s *HTTPServerAdapter) indexPage(c *gin.Context) {
	ctx := c.Request.Context()
	today := s.today()

	selected := today
	if d, ok := validation.ParseISODate(c.Query("date")); ok {
		selected = d
	}

	days, err := s.tideUseCase.YearDays(ctx, selected.Year())
	if err != nil {
		s.handlePageError(c, err)
		return
	}
	lookup := calendar.NewLookup(days)
	day, _ := lookup.Get(selected)

	basePath := c.Request.URL.Path
	link := func(d time.Time) string {
		return basePath + "?date=" + d.Format(validation.ISODateLayout)
	}

	view := indexView{
		dayView:        s.newDayView(c, selected, day),
		Today:          today,
		Month:          s.monthView(calendar.MonthGrid(selected.Year(), selected.Month(), lookup), selected, today),
		WeekdayHeaders: calendar.WeekdayHeaders(),
		MonthOptions:   calendar.MonthOptions(selected),
		PrevLink:       link(selected.AddDate(0, 0, -1)),
		NextLink:       link(selected.AddDate(0, 0, 1)),
		TodayLink:      link(today),
		PrevMonthLink:  link(calendar.PrevMonth(selected)),
		NextMonthLink:  link(calendar.NextMonth(selected)),
	}
	c.HTML(http.StatusOK, "index.html", view)
}

// calendarPage handles GET /calendario/:year/
func (s *HTTPServerAdapter) calendarPage(c *gin.Context) {
	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if !yearPathPattern.MatchString(raw) || err != nil || year < 1 {
		s.notFoundPage(c)
		return
	}

	days, err := s.tideUseCase.YearDays(c.Request.Context(), year)
	if err != nil {
		s.handlePageError(c, err)
		return
	}

	today := s.today()
	lookup := calendar.NewLookup(days)
	grids := calendar.YearGrid(year, lookup)

	view := calendarView{
		layoutView:     s.layout(c, fmt.Sprintf("Calendário de marés %d - %s", year, s.site.TownName), year),
		Months:         make([]monthView, 0, len(grids)),
		WeekdayHeaders: calendar.WeekdayHeaders(),
		PrevYear:       year - 1,
		NextYear:       year + 1,
	}
	for _, m := range grids {
		view.Months = append(view.Months, s.monthView(m, time.Time{}, today))
	}
	c.HTML(http.StatusOK, "calendar.html", view)
}

// parseDayPath reads a Y-M-D path segment. ok is false when the segment is
// not three integers; an impossible date falls back to today.
func (s *HTTPServerAdapter) parseDayPath(raw string) (time.Time, bool) {
	m := dayPathPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	year, errY := strconv.Atoi(m[1])
	month, errM := strconv.Atoi(m[2])
	day, errD := strconv.Atoi(m[3])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, false
	}

	date, err := tide.NewDate(year, time.Month(month), day)
	if err != nil {
		return s.today(), true
	}
	return date, true
}

// dayPage handles GET /dia/:date/
func (s *HTTPServerAdapter) dayPage(c *gin.Context) {
	date, ok := s.parseDayPath(c.Param("date"))
	if !ok {
		s.notFoundPage(c)
		return
	}

	day, err := s.lookupDay(c.Request.Context(), date)
	if err != nil {
		s.handlePageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "day.html", s.newDayView(c, date, day))
}

// lookupDay returns nil without error when nothing is stored for date
func (s *HTTPServerAdapter) lookupDay(ctx context.Context, date time.Time) (*tide.Day, error) {
	day, err := s.tideUseCase.GetDayByDate(ctx, date)
	if errors.IsNotFoundError(err) {
		return nil, nil
	}
	return day, err
}

func (s *HTTPServerAdapter) staticPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, s.layout(c, "Marés de "+s.site.TownName, s.today().Year()))
	}
}

// adsTxt handles GET /ads.txt
func (s *HTTPServerAdapter) adsTxt(c *gin.Context) {
	c.String(http.StatusOK, "%s\n", s.site.AdsTxt)
}

func (s *HTTPServerAdapter) notFoundPage(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		s.handleError(c, errors.NewNotFoundError("resource not found"))
		return
	}
	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"Title":    "Página não encontrada",
		"TownName": s.site.TownName,
		"Message":  "A página procurada não existe.",
	})
}

func (s *HTTPServerAdapter) handlePageError(c *gin.Context, err error) {
	status, _ := errorStatus(err)
	slog.Error("Page rendering failed", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString("request_id"))
	c.HTML(status, "error.html", gin.H{
		"Title":    "Erro",
		"TownName": s.site.TownName,
		"Message":  "Não foi possível carregar as marés agora. Tente novamente em instantes.",
	})
}
