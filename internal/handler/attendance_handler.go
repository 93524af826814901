package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-attendance-api/internal/dto"
	"github.com/noah-isme/lms-attendance-api/internal/service"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
	"github.com/noah-isme/lms-attendance-api/pkg/export"
	"github.com/noah-isme/lms-attendance-api/pkg/response"
)

type attendanceResolver interface {
	Resolve(ctx context.Context, req service.AttendanceRequest) (*dto.AttendanceReport, error)
	TrainingUnits(ctx context.Context, req service.UnitsRequest) (*dto.TrainingUnitsResult, error)
}

// AttendanceHandler exposes the attendance resolution endpoints.
type AttendanceHandler struct {
	attendance  attendanceResolver
	defaultView string
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance attendanceResolver, defaultView string) *AttendanceHandler {
	if !dto.ValidView(defaultView) {
		defaultView = dto.ViewBasic
	}
	return &AttendanceHandler{
		attendance:  attendance,
		defaultView: defaultView,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
	}
}

func (h *AttendanceHandler) attendanceRequest(c *gin.Context) (service.AttendanceRequest, error) {
	view := c.DefaultQuery("view", h.defaultView)
	if !dto.ValidView(view) {
		return service.AttendanceRequest{}, appErrors.Clone(appErrors.ErrValidation, "view must be 'basic' or 'extended'")
	}
	return service.AttendanceRequest{
		StudentID: c.Query("student_id"),
		BatchID:   c.Query("batch_id"),
		Date:      c.Query("date"),
		Subdomain: c.Query("subdomain"),
		LMSAPIKey: c.Query("lms_api_key"),
		View:      view,
	}, nil
}

// Get godoc
// @Summary Resolve attendance for a student, batch and date
// @Tags Attendance
// @Produce json
// @Param student_id query string true "Student login"
// @Param batch_id query string true "Batch (course) name or code"
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param view query string false "Record shape" Enums(basic, extended)
// @Param subdomain query string false "Upstream subdomain override"
// @Param lms_api_key query string false "Upstream API key override"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	req, err := h.attendanceRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.attendance.Resolve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download an attendance report as CSV or PDF
// @Tags Attendance
// @Produce octet-stream
// @Param student_id query string true "Student login"
// @Param batch_id query string true "Batch (course) name or code"
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param format query string false "File format" Enums(csv, pdf)
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be 'csv' or 'pdf'"))
		return
	}

	req, err := h.attendanceRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.attendance.Resolve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{Headers: dto.ExportHeaders, Rows: dto.ExportRows(report.Records)}
	filename := fmt.Sprintf("attendance_%s_%s.%s", report.StudentID, report.Date, format)

	var payload []byte
	var mime string
	switch format {
	case "pdf":
		title := fmt.Sprintf("Attendance %s - %s", report.StudentID, report.Date)
		payload, err = h.pdf.Render(dataset, title)
		mime = "application/pdf"
	default:
		payload, err = h.csv.Render(dataset)
		mime = "text/csv"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, mime, payload)
}

// Units godoc
// @Summary List instructor-led training units for a student and batch
// @Tags Attendance
// @Produce json
// @Param student_id query string true "Student login"
// @Param batch_id query string true "Batch (course) name or code"
// @Param subdomain query string false "Upstream subdomain override"
// @Param lms_api_key query string false "Upstream API key override"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /training-units [get]
func (h *AttendanceHandler) Units(c *gin.Context) {
	result, err := h.attendance.TrainingUnits(c.Request.Context(), service.UnitsRequest{
		StudentID: c.Query("student_id"),
		BatchID:   c.Query("batch_id"),
		Subdomain: c.Query("subdomain"),
		LMSAPIKey: c.Query("lms_api_key"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
