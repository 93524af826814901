package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-attendance-api/internal/dto"
	"github.com/noah-isme/lms-attendance-api/internal/lms"
	"github.com/noah-isme/lms-attendance-api/pkg/config"
	"github.com/noah-isme/lms-attendance-api/pkg/dates"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
)

// CompletionStatusCompleted is the upstream status required for a pass.
const CompletionStatusCompleted = "Completed"

// PassingScore is the exclusive lower bound: a score of exactly 50 fails.
const PassingScore = 50.0

type lmsAPI interface {
	ResolveUser(ctx context.Context, creds lms.Credentials, studentID string) (string, error)
	ResolveCourse(ctx context.Context, creds lms.Credentials, batchID string) (string, error)
	FetchUnits(ctx context.Context, creds lms.Credentials, userID, courseID string) ([]lms.TrainingUnit, error)
	FetchSessions(ctx context.Context, creds lms.Credentials, unitID string) ([]lms.SessionRecord, error)
}

// AttendanceService orchestrates the upstream lookups into per-session
// attendance verdicts for a requested calendar date.
type AttendanceService struct {
	client    lmsAPI
	policy    config.PolicyConfig
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(client lmsAPI, policy config.PolicyConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{client: client, policy: policy, validator: validate, logger: logger, metrics: metrics}
}

// AttendanceRequest is the resolution input. Subdomain and LMSAPIKey are
// optional per-request overrides of the configured upstream credentials.
type AttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	BatchID   string `json:"batch_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Subdomain string `json:"subdomain"`
	LMSAPIKey string `json:"lms_api_key"`
	View      string `json:"view" validate:"omitempty,oneof=basic extended"`
}

// UnitsRequest is the input for the plain units listing.
type UnitsRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	BatchID   string `json:"batch_id" validate:"required"`
	Subdomain string `json:"subdomain"`
	LMSAPIKey string `json:"lms_api_key"`
}

// Resolve turns (studentId, batchId, date) into attendance records.
// Steps 1-3 fail fast; per-unit session fetches fail soft.
func (s *AttendanceService) Resolve(ctx context.Context, req AttendanceRequest) (*dto.AttendanceReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_id, batch_id and date are required")
	}
	if !dates.ValidDay(req.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	creds := lms.Credentials{Subdomain: req.Subdomain, APIKey: req.LMSAPIKey}

	userID, err := s.client.ResolveUser(ctx, creds, req.StudentID)
	if err != nil {
		return nil, err
	}

	courseID, err := s.client.ResolveCourse(ctx, creds, req.BatchID)
	if err != nil {
		return nil, err
	}

	units, err := s.client.FetchUnits(ctx, creds, userID, courseID)
	if err != nil {
		return nil, err
	}

	report := &dto.AttendanceReport{
		StudentID: req.StudentID,
		BatchID:   req.BatchID,
		Date:      req.Date,
		Records:   []dto.AttendanceRecord{},
	}
	if len(units) == 0 {
		report.Message = "No 'Instructor-led training' units found."
		return report, nil
	}

	for _, unit := range units {
		sessions, err := s.client.FetchSessions(ctx, creds, string(unit.ID))
		if err != nil {
			// Isolated failure: the unit contributes no records but the
			// rest of the batch continues.
			s.logger.Warn("session fetch skipped",
				zap.String("unit_id", string(unit.ID)),
				zap.String("unit_name", unit.Name),
				zap.Error(err))
			if s.metrics != nil {
				s.metrics.CountSessionFetchSkip()
			}
			continue
		}

		for _, session := range sessions {
			record, keep, err := s.buildRecord(req, unit, session)
			if err != nil {
				return nil, err
			}
			if keep {
				report.Records = append(report.Records, record)
			}
		}
	}

	if len(report.Records) == 0 {
		report.Message = fmt.Sprintf("No sessions found for date %s.", req.Date)
		return report, nil
	}

	report.Records = dto.Shape(report.Records, req.View)
	return report, nil
}

// TrainingUnits lists the in-scope units for a student and batch. This is
// the original proxy surface the attendance pipeline grew out of.
func (s *AttendanceService) TrainingUnits(ctx context.Context, req UnitsRequest) (*dto.TrainingUnitsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_id and batch_id are required")
	}

	creds := lms.Credentials{Subdomain: req.Subdomain, APIKey: req.LMSAPIKey}

	userID, err := s.client.ResolveUser(ctx, creds, req.StudentID)
	if err != nil {
		return nil, err
	}
	courseID, err := s.client.ResolveCourse(ctx, creds, req.BatchID)
	if err != nil {
		return nil, err
	}
	units, err := s.client.FetchUnits(ctx, creds, userID, courseID)
	if err != nil {
		return nil, err
	}

	result := &dto.TrainingUnitsResult{
		StudentID: req.StudentID,
		BatchID:   req.BatchID,
		Units:     make([]dto.TrainingUnitItem, 0, len(units)),
	}
	if len(units) == 0 {
		result.Message = "No 'Instructor-led training' units found."
		return result, nil
	}
	for _, unit := range units {
		result.Units = append(result.Units, dto.TrainingUnitItem{
			ID:               string(unit.ID),
			Name:             unit.Name,
			CompletionStatus: unit.CompletionStatus,
			Score:            float64(unit.Score),
		})
	}
	return result, nil
}

// buildRecord normalises one session and decides whether it belongs to the
// requested date. keep is false for other days and for unparseable dates
// under the default policy.
func (s *AttendanceService) buildRecord(req AttendanceRequest, unit lms.TrainingUnit, session lms.SessionRecord) (dto.AttendanceRecord, bool, error) {
	start, ok := dates.Parse(session.StartDate)
	if !ok {
		if s.policy.StrictDates {
			return dto.AttendanceRecord{}, false, appErrors.Clone(appErrors.ErrUpstream,
				fmt.Sprintf("Could not parse session date '%s' for unit '%s'.", session.StartDate, unit.Name))
		}
		s.logger.Debug("dropping session with unparseable date",
			zap.String("unit_id", string(unit.ID)),
			zap.String("start_date", session.StartDate))
		return dto.AttendanceRecord{}, false, nil
	}
	if !dates.SameDay(start, req.Date) {
		return dto.AttendanceRecord{}, false, nil
	}

	minutes := int(session.DurationMinutes)
	passed := unit.CompletionStatus == CompletionStatusCompleted && float64(unit.Score) > PassingScore

	score := float64(unit.Score)
	record := dto.AttendanceRecord{
		StudentID:          req.StudentID,
		Attendance:         dto.AttendanceFailed,
		SessionName:        session.Name,
		SessionDescription: session.Description,
		UnitID:             string(unit.ID),
		UnitName:           unit.Name,
		CompletionStatus:   unit.CompletionStatus,
		Score:              &score,
	}
	if passed {
		in := dates.Format(start)
		out := dates.Format(dates.End(start, minutes))
		record.Attendance = dto.AttendancePassed
		record.InTime = &in
		record.OutTime = &out
		record.DurationMinutes = minutes
	}
	// Failed attendance carries no time evidence: times stay null and the
	// duration stays zero regardless of the real schedule.
	return record, true, nil
}
