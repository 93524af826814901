// Package lms is the narrow upstream client behind the attendance
// pipeline. It supports exactly the four lookups the pipeline needs and
// normalises every failure into a typed error.
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-attendance-api/pkg/config"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
)

// Observer receives upstream call timings. Implemented by the metrics
// service; a nil observer is tolerated.
type Observer interface {
	ObserveUpstreamCall(operation string, status int, duration time.Duration)
}

// Client performs the upstream lookups. Default credentials come from the
// config struct handed to the constructor; individual calls may override
// them. Each operation issues exactly one outbound request: no retries,
// no caching.
type Client struct {
	cfg      config.LMSConfig
	policy   config.PolicyConfig
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// New constructs a Client with a bounded per-call timeout.
func New(cfg config.LMSConfig, policy config.PolicyConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:      cfg,
		policy:   policy,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
	}
}

// ResolveUser maps an opaque student identifier to the upstream user id.
func (c *Client) ResolveUser(ctx context.Context, creds Credentials, studentID string) (string, error) {
	status, body, err := c.get(ctx, creds, "resolve_user", "/api/v1/users/username:"+url.PathEscape(studentID), nil)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusUnauthorized:
		return "", appErrors.Clone(appErrors.ErrUpstreamUnauthorized, "")
	case status == http.StatusNotFound:
		return "", appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("User with username '%s' not found.", studentID))
	case status != http.StatusOK:
		return "", appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("Error fetching user details: %d, %s", status, string(body)))
	}

	var payload struct {
		ID FlexString `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "Error decoding user details.")
	}
	if payload.ID == "" {
		return "", appErrors.Clone(appErrors.ErrUpstreamNotFound, "User ID not found for the provided username.")
	}
	return string(payload.ID), nil
}

// ResolveCourse maps a batch (course custom-field value) to the upstream
// course id. When several courses share the value the first in response
// order wins unless the strict match policy is configured.
func (c *Client) ResolveCourse(ctx context.Context, creds Credentials, batchID string) (string, error) {
	status, body, err := c.get(ctx, creds, "resolve_course", "/api/v1/getcoursesbycustomfield/custom_field_value:"+url.PathEscape(batchID), nil)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusUnauthorized:
		return "", appErrors.Clone(appErrors.ErrUpstreamUnauthorized, "")
	case status == http.StatusNotFound:
		return "", appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("Course with custom field value '%s' not found.", batchID))
	case status != http.StatusOK:
		return "", appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("Error fetching course details: %d, %s", status, string(body)))
	}

	var courses []struct {
		ID FlexString `json:"id"`
	}
	if err := json.Unmarshal(body, &courses); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "Error decoding course details.")
	}
	if len(courses) == 0 {
		return "", appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("No courses found for the custom field value '%s'.", batchID))
	}
	if len(courses) > 1 {
		if c.policy.CourseMatch == config.CourseMatchStrict {
			return "", appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("Multiple courses match the custom field value '%s'.", batchID))
		}
		c.logger.Warn("multiple courses match custom field, using first",
			zap.String("batch_id", batchID),
			zap.Int("matches", len(courses)))
	}
	if courses[0].ID == "" {
		return "", appErrors.Clone(appErrors.ErrUpstreamNotFound, "Course ID not found for the provided custom field value.")
	}
	return string(courses[0].ID), nil
}

// FetchUnits returns the user's instructor-led training units within a
// course. An empty slice is a valid result, not an error.
func (c *Client) FetchUnits(ctx context.Context, creds Credentials, userID, courseID string) ([]TrainingUnit, error) {
	query := url.Values{}
	query.Set("user_id", userID)
	query.Set("course_id", courseID)

	status, body, err := c.get(ctx, creds, "fetch_units", "/api/v1/getuserstatusincourse", query)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnauthorized, "")
	case status != http.StatusOK:
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("Error fetching user status in course: %d, %s", status, string(body)))
	}

	var payload struct {
		Units []TrainingUnit `json:"units"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "Error decoding user status in course.")
	}

	units := make([]TrainingUnit, 0, len(payload.Units))
	for _, unit := range payload.Units {
		if unit.Type != ILTType {
			continue
		}
		if unit.CompletionStatus == "" {
			unit.CompletionStatus = "Failed"
		}
		units = append(units, unit)
	}
	return units, nil
}

// FetchSessions returns the scheduled sessions for a training unit.
// A 404 and an empty body both mean "no sessions for this unit".
func (c *Client) FetchSessions(ctx context.Context, creds Credentials, unitID string) ([]SessionRecord, error) {
	query := url.Values{}
	query.Set("ilt_id", unitID)

	status, body, err := c.get(ctx, creds, "fetch_sessions", "/api/v1/getiltsessions", query)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnauthorized, "")
	case status == http.StatusNotFound:
		return nil, appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("No sessions found for unit '%s'.", unitID))
	case status != http.StatusOK:
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("Error fetching ILT sessions: %d, %s", status, string(body)))
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("No sessions found for unit '%s'.", unitID))
	}

	var sessions []SessionRecord
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "Error decoding ILT sessions.")
	}
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamNotFound, fmt.Sprintf("No sessions found for unit '%s'.", unitID))
	}
	return sessions, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, operation, path string, query url.Values) (int, []byte, error) {
	subdomain := creds.Subdomain
	if subdomain == "" {
		subdomain = c.cfg.Subdomain
	}
	apiKey := creds.APIKey
	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.talentlms.com", subdomain)
	}
	endpoint := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("An error occurred: %v", err))
	}
	req.SetBasicAuth(apiKey, "")

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(operation, 0, duration)
		return 0, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("An error occurred: %v", err))
	}
	defer resp.Body.Close()

	c.observe(operation, resp.StatusCode, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("An error occurred: %v", err))
	}
	return resp.StatusCode, body, nil
}

func (c *Client) observe(operation string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(operation, status, duration)
	}
}
