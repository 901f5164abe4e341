// Package client provides an HTTP client for the campbook REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

// Client is an HTTP client for the campbook API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Kind       string   `json:"kind"`
	Message    string   `json:"error"`
	Conflicts  []string `json:"conflicts"`
	Fields     []string `json:"fields"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
}

// GuestInput describes a guest in booking and check-in requests.
type GuestInput struct {
	FullName   string `json:"full_name,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// BookingRequest is the body of POST /api/reservations. Dates are
// YYYY-MM-DD.
type BookingRequest struct {
	UnitID        string      `json:"unit_id"`
	CheckIn       string      `json:"check_in"`
	CheckOut      string      `json:"check_out"`
	GuestID       int64       `json:"guest_id,omitempty"`
	Guest         *GuestInput `json:"guest,omitempty"`
	PaxTotal      int         `json:"pax_total"`
	PaxAffiliated int         `json:"pax_affiliated"`
	PaxAgreement  int         `json:"pax_agreement"`
	PaxIntern     int         `json:"pax_intern"`
	Notes         string      `json:"notes,omitempty"`
	StayOrder     *int64      `json:"stay_order,omitempty"`
}

// UpdateRequest is the body of PATCH /api/reservations/{id}. Nil fields
// are left unchanged.
type UpdateRequest struct {
	UnitID        *string `json:"unit_id,omitempty"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	PaxTotal      *int    `json:"pax_total,omitempty"`
	PaxAffiliated *int    `json:"pax_affiliated,omitempty"`
	PaxAgreement  *int    `json:"pax_agreement,omitempty"`
	PaxIntern     *int    `json:"pax_intern,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	StayOrder     *int64  `json:"stay_order,omitempty"`
}

// CheckInRequest is the body of POST /api/reservations/{id}/checkin.
type CheckInRequest struct {
	Guest         GuestInput `json:"guest"`
	PaxTotal      *int       `json:"pax_total,omitempty"`
	PaxAffiliated *int       `json:"pax_affiliated,omitempty"`
	PaxAgreement  *int       `json:"pax_agreement,omitempty"`
	PaxIntern     *int       `json:"pax_intern,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	StayOrder     *int64     `json:"stay_order,omitempty"`
}

// StatusResponse is the response from GET /api/units/{id}/status.
type StatusResponse struct {
	UnitID string          `json:"unit_id"`
	Date   calday.Date     `json:"date"`
	State  occupancy.State `json:"state"`
}

// CalendarOptions selects the grid returned by Calendar. Empty fields use
// the server defaults.
type CalendarOptions struct {
	From  string
	To    string
	Days  int
	Today string
	Units []string
}

func (o CalendarOptions) query() string {
	q := url.Values{}
	if o.From != "" {
		q.Set("from", o.From)
	}
	if o.To != "" {
		q.Set("to", o.To)
	}
	if o.Days > 0 {
		q.Set("days", strconv.Itoa(o.Days))
	}
	if o.Today != "" {
		q.Set("today", o.Today)
	}
	if len(o.Units) > 0 {
		q.Set("units", strings.Join(o.Units, ","))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListUnits returns the inventory, optionally filtered by category.
func (c *Client) ListUnits(ctx context.Context, category string) ([]*unit.Unit, error) {
	path := "/api/units"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var units []*unit.Unit
	if err := c.do(ctx, http.MethodGet, path, nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// UnitStatus returns a unit's state on date (empty means the server's
// today).
func (c *Client) UnitStatus(ctx context.Context, unitID, date string) (*StatusResponse, error) {
	path := "/api/units/" + url.PathEscape(unitID) + "/status"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Calendar returns the planning grid.
func (c *Client) Calendar(ctx context.Context, opts CalendarOptions) (*planner.Projection, error) {
	var proj planner.Projection
	if err := c.do(ctx, http.MethodGet, "/api/calendar"+opts.query(), nil, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// UnitICS downloads a unit's stays as an iCalendar file. It returns no
// data when the unit has no stays in the window.
func (c *Client) UnitICS(ctx context.Context, unitID string, opts CalendarOptions) ([]byte, error) {
	opts.Units = nil
	var raw bytes.Buffer
	path := "/api/units/" + url.PathEscape(unitID) + "/calendar.ics" + opts.query()
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw.Bytes(), nil
}

// Summary returns the front desk overview for date (empty means today).
func (c *Client) Summary(ctx context.Context, date string) (*availability.Summary, error) {
	path := "/api/summary"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var sum availability.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// CreateReservation books a unit.
func (c *Client) CreateReservation(ctx context.Context, req BookingRequest) (*reservation.Reservation, error) {
	var res reservation.Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservations", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetReservation returns one reservation.
func (c *Client) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	var res reservation.Reservation
	if err := c.do(ctx, http.MethodGet, "/api/reservations/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateReservation applies a partial edit.
func (c *Client) UpdateReservation(ctx context.Context, id string, req UpdateRequest) (*reservation.Reservation, error) {
	var res reservation.Reservation
	if err := c.do(ctx, http.MethodPatch, "/api/reservations/"+url.PathEscape(id), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteReservation cancels a reservation.
func (c *Client) DeleteReservation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/reservations/"+url.PathEscape(id), nil, nil)
}

// CheckIn records a guest's arrival.
func (c *Client) CheckIn(ctx context.Context, id string, req CheckInRequest) (*reservation.Reservation, error) {
	var res reservation.Reservation
	path := "/api/reservations/" + url.PathEscape(id) + "/checkin"
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Resync asks the server to reload its availability index.
func (c *Client) Resync(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/resync", nil, nil)
}

// do sends a request with an optional JSON body. A *bytes.Buffer result
// receives the raw body; anything else is JSON-decoded.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if raw, ok := result.(*bytes.Buffer); ok {
		raw.Write(respBody)
		return nil
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
