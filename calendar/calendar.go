// Package calendar lists calendars and manages their events.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Benature/larkgo/lark"
)

const calendarsPath = "/calendar/v4/calendars"

// Client queries the calendar API.
type Client struct {
	client *lark.Client
}

// New wraps client for calendar operations.
func New(client *lark.Client) *Client {
	return &Client{client: client}
}

// ListCalendars fetches one page of the caller's calendars. pageSize
// defaults to 50.
func (c *Client) ListCalendars(ctx context.Context, pageSize int, pageToken string) (*lark.Envelope, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	query := map[string]any{"page_size": pageSize}
	if pageToken != "" {
		query["page_token"] = pageToken
	}
	return c.client.Do(ctx, "GET", c.client.URL(calendarsPath), nil, query)
}

// EventTime is an event boundary: a unix-seconds timestamp for timed events
// or a date for all-day events.
type EventTime struct {
	Timestamp string `json:"timestamp,omitempty"`
	Date      string `json:"date,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// Event is one calendar event as the listing endpoint reports it.
type Event struct {
	EventID     string    `json:"event_id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   EventTime `json:"start_time"`
	EndTime     EventTime `json:"end_time"`
	Status      string    `json:"status,omitempty"`
}

// ListEventsOptions bound an event walk.
type ListEventsOptions struct {
	// StartTime and EndTime bound the window; zero values leave the bound
	// open.
	StartTime time.Time
	EndTime   time.Time
	// PageSize defaults to 50.
	PageSize  int
	MaxPages  int
	PageToken string
}

// ListEvents walks a calendar's events inside a time window.
func (c *Client) ListEvents(ctx context.Context, calendarID string, opts ListEventsOptions) (lark.ListResult[Event], error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	query := map[string]any{"page_size": pageSize}
	if !opts.StartTime.IsZero() {
		query["start_time"] = strconv.FormatInt(opts.StartTime.Unix(), 10)
	}
	if !opts.EndTime.IsZero() {
		query["end_time"] = strconv.FormatInt(opts.EndTime.Unix(), 10)
	}

	fetch := func(ctx context.Context, pageToken string) (lark.Page[Event], error) {
		q := make(map[string]any, len(query)+1)
		for k, v := range query {
			q[k] = v
		}
		if pageToken != "" {
			q["page_token"] = pageToken
		}

		env, err := c.client.Do(ctx, "GET", c.client.URL(calendarsPath+"/"+calendarID+"/events"), nil, q)
		if err != nil {
			return lark.Page[Event]{}, err
		}
		if !env.Ok() {
			return lark.Page[Event]{}, fmt.Errorf("list events: code %d: %s", env.Code, env.Msg)
		}
		var page lark.ListData[Event]
		if err := env.DecodeData(&page); err != nil {
			return lark.Page[Event]{}, fmt.Errorf("decode event page: %w", err)
		}
		return page.Page(), nil
	}

	return lark.Paginate(ctx, fetch, lark.PageOptions{
		PageSize:  pageSize,
		MaxPages:  opts.MaxPages,
		PageToken: opts.PageToken,
	})
}

// EventDraft describes an event to create.
type EventDraft struct {
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	// Timezone applies to both boundaries; empty leaves the server default.
	Timezone string
}

// Validate checks the draft before any network call: a summary and both
// boundaries are required, and the event must end after it starts.
func (d EventDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Summary, validation.Required),
		validation.Field(&d.StartTime, validation.Required),
		validation.Field(&d.EndTime, validation.Required, validation.By(func(any) error {
			if !d.StartTime.IsZero() && !d.EndTime.After(d.StartTime) {
				return errors.New("must be after start_time")
			}
			return nil
		})),
	)
}

// CreateEvent creates an event on a calendar. The draft is validated first;
// validation failures never reach the network.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, draft EventDraft) (*lark.Envelope, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event draft: %w", err)
	}

	body := map[string]any{
		"summary": draft.Summary,
		"start_time": EventTime{
			Timestamp: strconv.FormatInt(draft.StartTime.Unix(), 10),
			Timezone:  draft.Timezone,
		},
		"end_time": EventTime{
			Timestamp: strconv.FormatInt(draft.EndTime.Unix(), 10),
			Timezone:  draft.Timezone,
		},
	}
	if draft.Description != "" {
		body["description"] = draft.Description
	}
	return c.client.Do(ctx, "POST", c.client.URL(calendarsPath+"/"+calendarID+"/events"), body, nil)
}

// DeleteEvent removes an event from a calendar.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (*lark.Envelope, error) {
	return c.client.Do(ctx, "DELETE", c.client.URL(calendarsPath+"/"+calendarID+"/events/"+eventID), nil, nil)
}
