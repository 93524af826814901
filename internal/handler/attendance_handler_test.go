package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-attendance-api/internal/dto"
	"github.com/noah-isme/lms-attendance-api/internal/service"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
	"github.com/noah-isme/lms-attendance-api/pkg/response"
)

type attendanceServiceMock struct {
	resolveResp *dto.AttendanceReport
	resolveErr  error
	unitsResp   *dto.TrainingUnitsResult
	unitsErr    error
	lastReq     service.AttendanceRequest
	resolveNum  int
}

func (m *attendanceServiceMock) Resolve(ctx context.Context, req service.AttendanceRequest) (*dto.AttendanceReport, error) {
	m.resolveNum++
	m.lastReq = req
	return m.resolveResp, m.resolveErr
}

func (m *attendanceServiceMock) TrainingUnits(ctx context.Context, req service.UnitsRequest) (*dto.TrainingUnitsResult, error) {
	return m.unitsResp, m.unitsErr
}

func passedReport() *dto.AttendanceReport {
	in := "25-12-2024 14:30:00"
	out := "25-12-2024 16:00:00"
	return &dto.AttendanceReport{
		StudentID: "S1",
		BatchID:   "B1",
		Date:      "2024-12-25",
		Records: []dto.AttendanceRecord{{
			StudentID:       "S1",
			Attendance:      dto.AttendancePassed,
			SessionName:     "Morning",
			InTime:          &in,
			OutTime:         &out,
			DurationMinutes: 90,
		}},
	}
}

func TestAttendanceHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance?student_id=S1&batch_id=B1&date=2024-12-25", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", mockSvc.lastReq.StudentID)
	assert.Equal(t, dto.ViewBasic, mockSvc.lastReq.View)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestAttendanceHandlerGetViewOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance?student_id=S1&batch_id=B1&date=2024-12-25&view=extended", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ViewExtended, mockSvc.lastReq.View)
}

func TestAttendanceHandlerGetInvalidView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance?student_id=S1&batch_id=B1&date=2024-12-25&view=verbose", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mockSvc.resolveNum)
}

func TestAttendanceHandlerGetUpstreamError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{
		resolveErr: appErrors.Clone(appErrors.ErrUpstream, "Error fetching user details: 500, boom"),
	}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance?student_id=S1&batch_id=B1&date=2024-12-25", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error fetching user details: 500, boom")
}

func TestAttendanceHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance/export?student_id=S1&batch_id=B1&date=2024-12-25", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance_S1_2024-12-25.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Student,Session,Attendance,In,Out,Minutes", lines[0])
	assert.Equal(t, "S1,Morning,Passed,25-12-2024 14:30:00,25-12-2024 16:00:00,90", lines[1])
}

func TestAttendanceHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance/export?student_id=S1&batch_id=B1&date=2024-12-25&format=pdf", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance_S1_2024-12-25.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestAttendanceHandlerExportInvalidFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{resolveResp: passedReport()}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance/export?student_id=S1&batch_id=B1&date=2024-12-25&format=xlsx", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mockSvc.resolveNum)
}

func TestAttendanceHandlerUnits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{
		unitsResp: &dto.TrainingUnitsResult{
			StudentID: "S1",
			BatchID:   "B1",
			Units:     []dto.TrainingUnitItem{{ID: "T1", Name: "Unit One", CompletionStatus: "Completed", Score: 75}},
		},
	}
	handler := NewAttendanceHandler(mockSvc, dto.ViewBasic)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/training-units?student_id=S1&batch_id=B1", nil)
	c.Request = req

	handler.Units(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unit One")
}
