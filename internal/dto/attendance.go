package dto

import "strconv"

// Attendance verdicts.
const (
	AttendancePassed = "Passed"
	AttendanceFailed = "Failed"
)

// Report views. The historical API variants returned differing field sets
// per record; they collapse into one resolver with shaped output.
const (
	ViewBasic    = "basic"
	ViewExtended = "extended"
)

// ValidView reports whether the view name is supported.
func ValidView(view string) bool {
	return view == ViewBasic || view == ViewExtended
}

// AttendanceRecord is one session verdict for the requested date. Failed
// records never carry time evidence: in/out times are null and the
// duration is zero regardless of the real schedule.
type AttendanceRecord struct {
	StudentID          string  `json:"student_id"`
	Attendance         string  `json:"attendance"`
	SessionName        string  `json:"session_name"`
	SessionDescription string  `json:"session_description"`
	InTime             *string `json:"in_time"`
	OutTime            *string `json:"out_time"`
	DurationMinutes    int     `json:"duration_minutes"`

	// Extended view only.
	UnitID           string   `json:"unit_id,omitempty"`
	UnitName         string   `json:"unit_name,omitempty"`
	CompletionStatus string   `json:"completion_status,omitempty"`
	Score            *float64 `json:"score,omitempty"`
}

// AttendanceReport is the full resolution result. Records is empty when
// Message explains why (no units, no sessions on the date).
type AttendanceReport struct {
	StudentID string             `json:"student_id"`
	BatchID   string             `json:"batch_id"`
	Date      string             `json:"date"`
	Records   []AttendanceRecord `json:"records"`
	Message   string             `json:"message,omitempty"`
}

// TrainingUnitItem is an in-scope unit row for the units listing.
type TrainingUnitItem struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CompletionStatus string  `json:"completion_status"`
	Score            float64 `json:"score"`
}

// TrainingUnitsResult carries the units listing or a no-data message.
type TrainingUnitsResult struct {
	StudentID string             `json:"student_id"`
	BatchID   string             `json:"batch_id"`
	Units     []TrainingUnitItem `json:"units"`
	Message   string             `json:"message,omitempty"`
}

// Shape strips extended fields when the basic view is requested.
func Shape(records []AttendanceRecord, view string) []AttendanceRecord {
	if view == ViewExtended {
		return records
	}
	shaped := make([]AttendanceRecord, len(records))
	for i, record := range records {
		record.UnitID = ""
		record.UnitName = ""
		record.CompletionStatus = ""
		record.Score = nil
		shaped[i] = record
	}
	return shaped
}

// ExportHeaders is the column order for attendance exports.
var ExportHeaders = []string{"Student", "Session", "Attendance", "In", "Out", "Minutes"}

// ExportRows flattens records for the tabular exporters.
func ExportRows(records []AttendanceRecord) []map[string]string {
	rows := make([]map[string]string, len(records))
	for i, record := range records {
		in, out := "", ""
		if record.InTime != nil {
			in = *record.InTime
		}
		if record.OutTime != nil {
			out = *record.OutTime
		}
		rows[i] = map[string]string{
			"Student":    record.StudentID,
			"Session":    record.SessionName,
			"Attendance": record.Attendance,
			"In":         in,
			"Out":        out,
			"Minutes":    strconv.Itoa(record.DurationMinutes),
		}
	}
	return rows
}
