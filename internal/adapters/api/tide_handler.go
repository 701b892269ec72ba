package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"mares.app/internal/core/tide"
	"mares.app/pkg/errors"
	"mares.app/pkg/validation"
)

// TideReadingRequest is the flat write payload for POST and PUT
type TideReadingRequest struct {
	Date    string   `json:"date" binding:"required,isodate"`
	Weekday string   `json:"weekday" binding:"max=10"`
	Order   int      `json:"order" binding:"required,min=1,max=4"`
	Time    string   `json:"time" binding:"required,clocktime"`
	Height  *float64 `json:"height" binding:"required"`
}

// TideReadingPatchRequest carries the fields of a PATCH; absent fields stay unchanged
type TideReadingPatchRequest struct {
	Date    *string  `json:"date" binding:"omitempty,isodate"`
	Weekday *string  `json:"weekday" binding:"omitempty,max=10"`
	Order   *int     `json:"order" binding:"omitempty,min=1,max=4"`
	Time    *string  `json:"time" binding:"omitempty,clocktime"`
	Height  *float64 `json:"height"`
}

// TideReadingResponse is one reading as the API exposes it
type TideReadingResponse struct {
	ID     uint    `json:"id"`
	Order  int     `json:"order"`
	Time   string  `json:"time"`
	Height float64 `json:"height"`
}

// TideDayResponse is one day with its readings in slot order
type TideDayResponse struct {
	ID      uint                  `json:"id"`
	Date    string                `json:"date"`
	Weekday string                `json:"weekday"`
	Tides   []TideReadingResponse `json:"tides"`
}

// RegisterValidators installs the custom binding tags used by the request types
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.NewConfigurationError("unexpected binding validator engine", nil)
	}
	if err := v.RegisterValidation("clocktime", validateClockTime); err != nil {
		return errors.NewConfigurationError("register clocktime validator", err)
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		return errors.NewConfigurationError("register isodate validator", err)
	}
	return nil
}

// validateClockTime accepts HH:MM or HH:MM:SS
func validateClockTime(fl validator.FieldLevel) bool {
	return validation.IsClockTime(fl.Field().String())
}

// validateISODate accepts YYYY-MM-DD calendar dates
func validateISODate(fl validator.FieldLevel) bool {
	return validation.IsISODate(fl.Field().String())
}

func readingResponse(r *tide.Reading) TideReadingResponse {
	return TideReadingResponse{
		ID:     r.ID,
		Order:  r.Order,
		Time:   r.Time.String(),
		Height: r.Height,
	}
}

func dayResponse(d *tide.Day) TideDayResponse {
	resp := TideDayResponse{
		ID:      d.ID,
		Date:    d.Date.Format(validation.ISODateLayout),
		Weekday: d.Weekday,
		Tides:   make([]TideReadingResponse, 0, len(d.Readings)),
	}
	for _, r := range d.SortedReadings() {
		resp.Tides = append(resp.Tides, readingResponse(&r))
	}
	return resp
}

// pathID parses the :id segment; anything but a positive integer is a 404
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// listTideDays handles GET /api/tidedays/ requests
func (s *HTTPServerAdapter) listTideDays(c *gin.Context) {
	filter := tide.DayFilter{
		Date:  c.Query("date"),
		Start: c.Query("start"),
		End:   c.Query("end"),
	}

	days, err := s.tideUseCase.ListDays(c.Request.Context(), filter)
	if err != nil {
		s.handleError(c, err)
		return
	}

	resp := make([]TideDayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, dayResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

// getTideDay handles GET /api/tidedays/:id/ requests
func (s *HTTPServerAdapter) getTideDay(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.handleError(c, errors.NewNotFoundError("tide day not found"))
		return
	}

	day, err := s.tideUseCase.GetDay(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse(day))
}

// listTides handles GET /api/tides/ requests
func (s *HTTPServerAdapter) listTides(c *gin.Context) {
	readings, err := s.tideUseCase.ListReadings(c.Request.Context(), tide.ReadingFilter{Date: c.Query("date")})
	if err != nil {
		s.handleError(c, err)
		return
	}

	resp := make([]TideReadingResponse, 0, len(readings))
	for _, r := range readings {
		resp = append(resp, readingResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// getTide handles GET /api/tides/:id/ requests
func (s *HTTPServerAdapter) getTide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.handleError(c, errors.NewNotFoundError("tide reading not found"))
		return
	}

	reading, err := s.tideUseCase.GetReading(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, readingResponse(reading))
}

func (r TideReadingRequest) input() tide.ReadingInput {
	return tide.ReadingInput{
		Date:    r.Date,
		Weekday: r.Weekday,
		Order:   r.Order,
		Time:    r.Time,
		Height:  *r.Height,
	}
}

// createTide handles POST /api/tides/ requests. Posting an existing
// (date, order) pair overwrites that reading.
func (s *HTTPServerAdapter) createTide(c *gin.Context) {
	var req TideReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Request binding error", "error", err)
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return
	}

	reading, created, err := s.tideUseCase.SaveReading(c.Request.Context(), req.input())
	if err != nil {
		s.handleError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, readingResponse(reading))
}

// updateTide handles PUT /api/tides/:id/ requests
func (s *HTTPServerAdapter) updateTide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.handleError(c, errors.NewNotFoundError("tide reading not found"))
		return
	}

	var req TideReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Request binding error", "error", err)
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return
	}

	reading, err := s.tideUseCase.UpdateReading(c.Request.Context(), id, req.input())
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, readingResponse(reading))
}

// patchTide handles PATCH /api/tides/:id/ requests
func (s *HTTPServerAdapter) patchTide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.handleError(c, errors.NewNotFoundError("tide reading not found"))
		return
	}

	var req TideReadingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Request binding error", "error", err)
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return
	}

	reading, err := s.tideUseCase.PatchReading(c.Request.Context(), id, tide.ReadingPatch{
		Date:    req.Date,
		Weekday: req.Weekday,
		Order:   req.Order,
		Time:    req.Time,
		Height:  req.Height,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, readingResponse(reading))
}

// deleteTide handles DELETE /api/tides/:id/ requests
func (s *HTTPServerAdapter) deleteTide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.handleError(c, errors.NewNotFoundError("tide reading not found"))
		return
	}

	if err := s.tideUseCase.DeleteReading(c.Request.Context(), id); err != nil {
		s.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
