// Package task queries tasks: the caller's own task list and the tasks of a
// named tasklist, with completion and creation-time filters.
package task

import (
	"context"
	"errors"

	"github.com/Benature/larkgo/lark"
)

const (
	tasksPath    = "/task/v2/tasks"
	tasklistPath = "/task/v2/tasklist/"
)

// ErrMissingTasklist means ListTasklistTasks was called without a tasklist
// guid.
var ErrMissingTasklist = errors.New("task: tasklist guid is required")

// Client queries the task API.
type Client struct {
	client *lark.Client
}

// New wraps client for task queries.
func New(client *lark.Client) *Client {
	return &Client{client: client}
}

// ListOptions filter a task listing.
type ListOptions struct {
	// Completed filters by completion state; nil returns all tasks.
	Completed *bool
	// PageSize defaults to 50.
	PageSize int
	// Type selects the listing scope; defaults to my_tasks.
	Type      string
	PageToken string
}

// List queries the caller's tasks.
func (c *Client) List(ctx context.Context, opts ListOptions) (*lark.Envelope, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	taskType := opts.Type
	if taskType == "" {
		taskType = "my_tasks"
	}

	query := map[string]any{
		"page_size":    pageSize,
		"type":         taskType,
		"user_id_type": nil,
	}
	if opts.Completed != nil {
		query["completed"] = *opts.Completed
	}
	if opts.PageToken != "" {
		query["page_token"] = opts.PageToken
	}
	return c.client.Do(ctx, "GET", c.client.URL(tasksPath), nil, query)
}

// TasklistOptions filter a tasklist listing.
type TasklistOptions struct {
	// Completed filters by completion state; nil returns all tasks.
	Completed *bool
	// StartCreateTime and EndCreateTime bound the task creation time as unix
	// millisecond strings.
	StartCreateTime string
	EndCreateTime   string
	// PageSize defaults to 50; the endpoint accepts 1-100.
	PageSize  int
	PageToken string
}

// ListTasklistTasks queries the tasks of one tasklist by guid.
func (c *Client) ListTasklistTasks(ctx context.Context, tasklistGUID string, opts TasklistOptions) (*lark.Envelope, error) {
	if tasklistGUID == "" {
		return nil, ErrMissingTasklist
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	query := map[string]any{
		"page_size":    pageSize,
		"user_id_type": nil,
	}
	if opts.Completed != nil {
		query["completed"] = *opts.Completed
	}
	if opts.StartCreateTime != "" {
		query["start_create_time"] = opts.StartCreateTime
	}
	if opts.EndCreateTime != "" {
		query["end_create_time"] = opts.EndCreateTime
	}
	if opts.PageToken != "" {
		query["page_token"] = opts.PageToken
	}
	return c.client.Do(ctx, "GET", c.client.URL(tasklistPath+tasklistGUID+"/tasks"), nil, query)
}
