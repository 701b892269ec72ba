package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"mares.app/internal/adapters/cache"
	"mares.app/internal/adapters/database"
	"mares.app/internal/adapters/infrastructure"
	"mares.app/internal/core/tide"
	"mares.app/internal/mocks"
	"mares.app/internal/ports"
)

type ServerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	router  *gin.Engine
	metrics *mocks.MetricsCollector
	clock   *clockwork.FakeClock
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(RegisterValidators())
}

func (s *ServerTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.Exec("PRAGMA foreign_keys = ON").Error)
	s.Require().NoError(db.AutoMigrate(database.Models()...))
	s.db = db

	configProvider := &mocks.ConfigProvider{
		Site: ports.SiteConfig{
			BaseURL:  "https://mares.example.com/",
			TownName: "Salinópolis",
			ShareURL: "https://www.maresdesalinas.com.br",
			AdsTxt:   "google.com, pub-8048981882025505, DIRECT, f08c47fec0942fa0",
		},
		Cache: ports.CacheConfig{Enabled: true, TTL: time.Hour},
	}
	s.metrics = mocks.NewMetricsCollector()
	calendarCache := cache.NewMemoryCacheProvider()

	useCase, err := tide.NewUseCase(tide.UseCaseDependencies{
		Repository: database.NewTideRepositoryAdapter(db),
		Cache:      calendarCache,
		Config:     configProvider,
		Logger:     mocks.NewLogger(),
		Metrics:    s.metrics,
	})
	s.Require().NoError(err)

	// 01:30 UTC is still the previous evening three hours west
	s.clock = clockwork.NewFakeClockAt(time.Date(2025, time.February, 14, 1, 30, 0, 0, time.UTC))

	server, err := NewHTTPServerAdapter(ServerOptions{
		Config:      ServerConfig{Port: 8080, CORSOrigins: []string{"*"}},
		TideUseCase: useCase,
		HealthChecker: infrastructure.NewSystemHealthChecker(infrastructure.SystemHealthCheckerConfig{
			DatabaseChecker: infrastructure.NewDatabaseHealthChecker(db),
			CacheChecker:    infrastructure.NewCacheHealthChecker(calendarCache),
			ConfigProvider:  configProvider,
		}),
		Metrics:        s.metrics,
		ConfigProvider: configProvider,
		Clock:          s.clock,
		Location:       time.FixedZone("BRT", -3*60*60),
	})
	s.Require().NoError(err)
	s.router = server.GetRouter()
}

func (s *ServerTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) post(date string, order int, clock string, height float64) TideReadingResponse {
	w := s.do("POST", "/api/tides/", gin.H{
		"date": date, "weekday": "Sex", "order": order, "time": clock, "height": height,
	})
	s.Require().Contains([]int{http.StatusCreated, http.StatusOK}, w.Code, w.Body.String())

	var resp TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *ServerTestSuite) seedFebruary14() {
	s.post("2025-02-14", 1, "01:30", 1.2)
	s.post("2025-02-14", 2, "07:45", 0.3)
	s.post("2025-02-14", 3, "13:50", 1.5)
	s.post("2025-02-14", 4, "20:05", 0.1)
}

func (s *ServerTestSuite) TestCreateTide_CreatesThenUpserts() {
	w := s.do("POST", "/api/tides/", gin.H{
		"date": "2025-02-14", "weekday": "Sex", "order": 1, "time": "01:30", "height": 1.2,
	})
	s.Equal(http.StatusCreated, w.Code)

	var created TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.NotZero(created.ID)
	s.Equal(1, created.Order)
	s.Equal("01:30", created.Time)
	s.Equal(1.2, created.Height)

	w = s.do("POST", "/api/tides/", gin.H{
		"date": "2025-02-14", "order": 1, "time": "01:45:00", "height": 1.257,
	})
	s.Equal(http.StatusOK, w.Code)

	var updated TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Equal(created.ID, updated.ID)
	s.Equal("01:45", updated.Time)
	s.Equal(1.26, updated.Height)

	w = s.do("GET", "/api/tidedays/", nil)
	s.Equal(http.StatusOK, w.Code)

	var days []TideDayResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &days))
	s.Require().Len(days, 1)
	s.Equal("2025-02-14", days[0].Date)
	s.Equal("Sex", days[0].Weekday)
	s.Len(days[0].Tides, 1)
}

func (s *ServerTestSuite) TestCreateTide_Validation() {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing date", gin.H{"order": 1, "time": "01:30", "height": 1.2}},
		{"bad date", gin.H{"date": "2025-02-30", "order": 1, "time": "01:30", "height": 1.2}},
		{"order too high", gin.H{"date": "2025-02-14", "order": 5, "time": "01:30", "height": 1.2}},
		{"order zero", gin.H{"date": "2025-02-14", "order": 0, "time": "01:30", "height": 1.2}},
		{"short time", gin.H{"date": "2025-02-14", "order": 1, "time": "1:30", "height": 1.2}},
		{"compact time", gin.H{"date": "2025-02-14", "order": 1, "time": "0130", "height": 1.2}},
		{"missing height", gin.H{"date": "2025-02-14", "order": 1, "time": "01:30"}},
		{"long weekday", gin.H{"date": "2025-02-14", "weekday": strings.Repeat("x", 11), "order": 1, "time": "01:30", "height": 1.2}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do("POST", "/api/tides/", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}

	var count int64
	s.Require().NoError(s.db.Model(&database.TideReadingModel{}).Count(&count).Error)
	s.Zero(count)
}

func (s *ServerTestSuite) TestCreateTide_ZeroHeightIsAccepted() {
	w := s.do("POST", "/api/tides/", gin.H{"date": "2025-02-14", "order": 1, "time": "01:30", "height": 0})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *ServerTestSuite) TestListTideDays_Filters() {
	for _, d := range []string{"2025-01-31", "2025-02-01", "2025-02-02", "2025-02-03"} {
		s.post(d, 1, "06:00", 1.0)
	}

	dates := func(query string) []string {
		w := s.do("GET", "/api/tidedays/"+query, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		var days []TideDayResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &days))
		out := make([]string, 0, len(days))
		for _, d := range days {
			out = append(out, d.Date)
		}
		return out
	}

	s.Equal([]string{"2025-02-01", "2025-02-02", "2025-02-03"}, dates("?start=2025-02-01&end=2025-02-03"))
	s.Equal([]string{"2025-02-02"}, dates("?date=2025-02-02"))
	s.Equal([]string{"2025-02-02"}, dates("?date=2025-02-02&start=2025-02-01&end=2025-02-03"))
	s.Len(dates("?start=2025-02-01"), 4)
	s.Len(dates("?date=garbage"), 4)
	s.Empty(dates("?start=2025-03-01&end=2025-03-31"))
}

func (s *ServerTestSuite) TestGetTideDay() {
	s.seedFebruary14()

	w := s.do("GET", "/api/tidedays/", nil)
	var days []TideDayResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &days))
	s.Require().Len(days, 1)

	w = s.do("GET", "/api/tidedays/"+itoa(days[0].ID)+"/", nil)
	s.Equal(http.StatusOK, w.Code)

	var day TideDayResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &day))
	s.Require().Len(day.Tides, 4)
	for i, r := range day.Tides {
		s.Equal(i+1, r.Order)
	}

	s.Equal(http.StatusNotFound, s.do("GET", "/api/tidedays/999/", nil).Code)
	s.Equal(http.StatusNotFound, s.do("GET", "/api/tidedays/abc/", nil).Code)
}

func (s *ServerTestSuite) TestListTides_OrderedByDateThenOrder() {
	s.post("2025-02-15", 2, "08:00", 0.4)
	s.post("2025-02-14", 2, "07:45", 0.3)
	s.post("2025-02-15", 1, "02:00", 1.1)
	s.post("2025-02-14", 1, "01:30", 1.2)

	w := s.do("GET", "/api/tides/", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var readings []TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &readings))
	s.Require().Len(readings, 4)
	s.Equal([]string{"01:30", "07:45", "02:00", "08:00"},
		[]string{readings[0].Time, readings[1].Time, readings[2].Time, readings[3].Time})

	w = s.do("GET", "/api/tides/?date=2025-02-15", nil)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &readings))
	s.Len(readings, 2)

	var raw []map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &raw))
	s.ElementsMatch([]string{"id", "order", "time", "height"}, keys(raw[0]))
}

func (s *ServerTestSuite) TestUpdateTide() {
	first := s.post("2025-02-14", 1, "01:30", 1.2)
	second := s.post("2025-02-14", 2, "07:45", 0.3)

	w := s.do("PUT", "/api/tides/"+itoa(second.ID)+"/", gin.H{
		"date": "2025-02-14", "order": 1, "time": "07:45", "height": 0.3,
	})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do("PUT", "/api/tides/"+itoa(second.ID)+"/", gin.H{
		"date": "2025-02-15", "order": 1, "time": "08:10", "height": 0.4,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var moved TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &moved))
	s.Equal(second.ID, moved.ID)
	s.Equal("08:10", moved.Time)

	w = s.do("GET", "/api/tides/?date=2025-02-15", nil)
	var readings []TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &readings))
	s.Require().Len(readings, 1)
	s.Equal(second.ID, readings[0].ID)

	s.Equal(http.StatusBadRequest, s.do("PUT", "/api/tides/"+itoa(first.ID)+"/", gin.H{"order": 1}).Code)
	s.Equal(http.StatusNotFound, s.do("PUT", "/api/tides/999/", gin.H{
		"date": "2025-02-14", "order": 3, "time": "07:45", "height": 0.3,
	}).Code)
}

func (s *ServerTestSuite) TestPatchTide() {
	reading := s.post("2025-02-14", 1, "01:30", 1.2)

	w := s.do("PATCH", "/api/tides/"+itoa(reading.ID)+"/", gin.H{"height": 1.35})
	s.Require().Equal(http.StatusOK, w.Code)

	var patched TideReadingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &patched))
	s.Equal(1.35, patched.Height)
	s.Equal("01:30", patched.Time)
	s.Equal(1, patched.Order)

	s.Equal(http.StatusBadRequest, s.do("PATCH", "/api/tides/"+itoa(reading.ID)+"/", gin.H{"time": "25:00"}).Code)
	s.Equal(http.StatusNotFound, s.do("PATCH", "/api/tides/999/", gin.H{"height": 1.0}).Code)
}

func (s *ServerTestSuite) TestDeleteTide() {
	reading := s.post("2025-02-14", 1, "01:30", 1.2)

	w := s.do("DELETE", "/api/tides/"+itoa(reading.ID)+"/", nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Empty(w.Body.String())

	s.Equal(http.StatusNotFound, s.do("GET", "/api/tides/"+itoa(reading.ID)+"/", nil).Code)
	s.Equal(http.StatusNotFound, s.do("DELETE", "/api/tides/"+itoa(reading.ID)+"/", nil).Code)
}

func (s *ServerTestSuite) TestHealth() {
	w := s.do("GET", "/api/health", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Status     string                        `json:"status"`
		Components map[string]ports.HealthStatus `json:"components"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("healthy", body.Status)
	s.Equal("healthy", body.Components["database"].Status)
	s.Equal("memory", body.Components["cache"].Details["type"])
}

func (s *ServerTestSuite) TestHealth_DatabaseDown() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	w := s.do("GET", "/api/health", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), `"unhealthy"`)
}

func (s *ServerTestSuite) TestRequestIDAndMetrics() {
	s.metrics.On("ObserveHTTPRequest", "GET", "/api/tidedays/", http.StatusOK, mock.Anything).Return()

	w := s.do("GET", "/api/tidedays/", nil)
	s.NotEmpty(w.Header().Get(requestIDHeader))

	req := httptest.NewRequest("GET", "/api/tidedays/", nil)
	req.Header.Set(requestIDHeader, "0b7f1f8e-8d6a-4f0c-9d0e-3f5b2a1c4d5e")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal("0b7f1f8e-8d6a-4f0c-9d0e-3f5b2a1c4d5e", w.Header().Get(requestIDHeader))

	s.metrics.AssertNumberOfCalls(s.T(), "ObserveHTTPRequest", 2)
}

func (s *ServerTestSuite) TestCORSPreflight() {
	req := httptest.NewRequest("OPTIONS", "/api/tides/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServerTestSuite) TestIndexPage_Today() {
	s.post("2025-02-13", 1, "00:40", 1.3)
	s.post("2025-02-13", 2, "06:55", 0.2)

	w := s.do("GET", "/", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()

	s.Contains(body, "13/02/2025")
	s.Contains(body, "Maré Alta")
	s.Contains(body, "Maré Baixa")
	s.Contains(body, `href="/?date=2025-02-12"`)
	s.Contains(body, `href="/?date=2025-02-14"`)
	s.Contains(body, `href="/?date=2025-01-01"`)
	s.Contains(body, `href="/?date=2025-03-01"`)
	s.Contains(body, `<link rel="canonical" href="https://mares.example.com/">`)
	s.Contains(body, `<option value="2025-02-01" selected>Fevereiro 2025</option>`)
	s.Contains(body, "https://wa.me/?text=")
}

func (s *ServerTestSuite) TestIndexPage_SelectedDate() {
	s.seedFebruary14()

	w := s.do("GET", "/?date=2025-02-14", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()

	s.Contains(body, "14/02/2025 (Sex)")
	s.Contains(body, "01:30 - 1.20 m")
	s.Contains(body, `href="/?date=2025-02-13"`)

	// the dated headline only appears in the per-day share text
	s.Contains(body, url.QueryEscape("14/02/2025:"))
}

func (s *ServerTestSuite) TestIndexPage_ReflectsWritesThroughCache() {
	s.Contains(s.do("GET", "/?date=2025-02-14", nil).Body.String(), "Sem dados de maré")

	s.post("2025-02-14", 1, "01:30", 1.2)

	s.Contains(s.do("GET", "/?date=2025-02-14", nil).Body.String(), "01:30 - 1.20 m")
}

func (s *ServerTestSuite) TestIndexPage_InvalidDateFallsBackToToday() {
	w := s.do("GET", "/?date=2025-13-45", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "13/02/2025")
	s.Contains(w.Body.String(), "Sem dados de maré")
}

func (s *ServerTestSuite) TestCalendarPage() {
	s.seedFebruary14()

	w := s.do("GET", "/calendario/2025/", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()

	s.Contains(body, "Calendário de marés 2025")
	for _, month := range []string{"Janeiro", "Fevereiro", "Março", "Dezembro"} {
		s.Contains(body, "<caption>"+month+"</caption>")
	}
	s.Contains(body, `href="/dia/2025-2-14/"`)
	s.Contains(body, "13:50 1.50")
	s.Contains(body, `href="/calendario/2024/"`)

	s.Equal(http.StatusNotFound, s.do("GET", "/calendario/abc/", nil).Code)
	s.Equal(http.StatusNotFound, s.do("GET", "/calendario/0/", nil).Code)
}

func (s *ServerTestSuite) TestDayPage() {
	s.seedFebruary14()

	w := s.do("GET", "/dia/2025-2-14/", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Contains(body, "sexta-feira, 14 de Fevereiro de 2025")
	s.Contains(body, "Maré Alta")
	s.Contains(body, "Compartilhar no WhatsApp")

	w = s.do("GET", "/dia/2025-02-30/", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "13/02/2025")
	s.NotContains(w.Body.String(), "Compartilhar no WhatsApp")

	s.Equal(http.StatusNotFound, s.do("GET", "/dia/hoje/", nil).Code)
}

func (s *ServerTestSuite) TestStaticPages() {
	w := s.do("GET", "/ads.txt", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("google.com, pub-8048981882025505, DIRECT, f08c47fec0942fa0\n", w.Body.String())
	s.True(strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	s.Equal(http.StatusOK, s.do("GET", "/sobre/", nil).Code)
	s.Equal(http.StatusOK, s.do("GET", "/privacidade/", nil).Code)

	w = s.do("GET", "/nao-existe/", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "Página não encontrada")

	w = s.do("GET", "/api/nao-existe/", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"resource not found"}`, w.Body.String())
}

func (s *ServerTestSuite) TestNewHTTPServerAdapter_MissingDependencies() {
	_, err := NewHTTPServerAdapter(ServerOptions{})
	s.Error(err)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
