package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"survey-analyzer/internal/geocache"
	"survey-analyzer/internal/models"
	"survey-analyzer/internal/survey"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AnalysisService interface for dependency injection
type AnalysisService interface {
	Analyze(context.Context, *survey.Table, survey.Filter) (*models.Analysis, error)
	Rows(*survey.Table, survey.Filter) (*models.RawData, error)
}

// AnalyzeHandler handles workbook analysis requests
type AnalyzeHandler struct {
	service   AnalysisService
	sheet     string
	headerRow int
	maxUpload int64
}

// NewAnalyzeHandler creates a new analyze handler. sheet and headerRow are used
// when the request does not name them. Request bodies larger than maxUpload bytes
// are rejected; zero disables the limit.
func NewAnalyzeHandler(svc AnalysisService, sheet string, headerRow int, maxUpload int64) *AnalyzeHandler {
	return &AnalyzeHandler{service: svc, sheet: sheet, headerRow: headerRow, maxUpload: maxUpload}
}

// Analyze handles POST /analyze requests
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	table, ok := h.loadTable(c)
	if !ok {
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), table, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Rows handles POST /rows requests. It returns the filtered survey rows as read.
func (h *AnalyzeHandler) Rows(c *gin.Context) {
	table, ok := h.loadTable(c)
	if !ok {
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	rows, err := h.service.Rows(table, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// Controls handles POST /controls requests. It returns the year bounds of the
// whole workbook and the teachers who taught within the requested years.
func (h *AnalyzeHandler) Controls(c *gin.Context) {
	table, ok := h.loadTable(c)
	if !ok {
		return
	}

	minYear, maxYear, hasYears, err := survey.YearRange(table)
	if err != nil {
		writeError(c, err)
		return
	}

	years, ok := parseYears(c)
	if !ok {
		return
	}
	inRange, err := years.Apply(table)
	if err != nil {
		writeError(c, err)
		return
	}
	teachers, err := survey.Teachers(inRange)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"teachers": append([]string{survey.AllTeachers}, teachers...)}
	if hasYears {
		resp["min_year"] = minYear
		resp["max_year"] = maxYear
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyzeHandler) loadTable(c *gin.Context) (*survey.Table, bool) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	fileHeader, err := c.FormFile("workbook")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds limit", "limit_bytes": tooLarge.Limit})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required form file 'workbook'"})
		return nil, false
	}

	sheet := c.DefaultPostForm("sheet", h.sheet)
	headerRow := h.headerRow
	if v := c.PostForm("header_row"); v != "" {
		headerRow, err = strconv.Atoi(v)
		if err != nil || headerRow < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid header_row"})
			return nil, false
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded workbook"})
		return nil, false
	}
	defer file.Close()

	table, err := survey.LoadWorkbook(file, sheet, headerRow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return table, true
}

func parseFilter(c *gin.Context) (survey.Filter, bool) {
	filter, ok := parseYears(c)
	if !ok {
		return filter, false
	}
	filter.Teachers = c.PostFormArray("teacher")
	return filter, true
}

// parseYears reads the optional start_year and end_year fields.
func parseYears(c *gin.Context) (survey.Filter, bool) {
	var filter survey.Filter

	for _, field := range []struct {
		name   string
		target **int
	}{
		{"start_year", &filter.StartYear},
		{"end_year", &filter.EndYear},
	} {
		v := c.PostForm(field.name)
		if v == "" {
			continue
		}
		year, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field.name})
			return filter, false
		}
		*field.target = &year
	}

	if filter.StartYear != nil && filter.EndYear != nil && *filter.StartYear > *filter.EndYear {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_year must not be after end_year"})
		return filter, false
	}

	return filter, true
}

func writeError(c *gin.Context, err error) {
	var (
		missing *survey.MissingColumnError
		lookup  *geocache.LookupFailure
		load    *geocache.LoadError
	)

	switch {
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": missing.Error(), "column": missing.Column})
	case errors.As(err, &lookup):
		c.JSON(http.StatusBadGateway, gin.H{"error": lookup.Error(), "place": lookup.Key})
	case errors.As(err, &load):
		log.Error().Err(err).Str("path", load.Path).Msg("geocode cache unreadable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": load.Error()})
	default:
		log.Error().Err(err).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
