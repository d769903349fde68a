// Package backend talks to the upstream job REST API: the paged open-jobs
// listing and the apply endpoint.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobboard-portal/internal/application"
	"jobboard-portal/internal/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	jobsPath  = "/api/jobs"
	applyPath = "/api/applications/jobs/%s/apply"

	// newWindow is how recent a posting must be to be flagged as new.
	newWindow = 7 * 24 * time.Hour

	maxParallelPages = 4
	userAgent        = "jobboard-portal/1.0"
)

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

type Options struct {
	BaseURL           string
	Token             string
	PageSize          int
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

type Client struct {
	baseURL  string
	token    string
	pageSize int
	hc       *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		pageSize: pageSize,
		hc:       hc,
		limiter:  rate.NewLimiter(limit, maxParallelPages),
		logger:   logger,
		now:      time.Now,
	}
}

type jobRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Salary      *float64 `json:"salary"`
	CompanyName string   `json:"companyName"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
}

type jobsPage struct {
	Content    []jobRecord `json:"content"`
	TotalPages int         `json:"totalPages"`
	Number     int         `json:"number"`
}

// ListOpenJobs fetches every page of open jobs and maps them to listings,
// newest first as the backend orders them.
func (c *Client) ListOpenJobs(ctx context.Context) ([]models.JobListing, error) {
	first, err := c.fetchPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	pages := make([][]jobRecord, max(first.TotalPages, 1))
	pages[0] = first.Content

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPages)
	for n := 1; n < first.TotalPages; n++ {
		n := n
		g.Go(func() error {
			p, err := c.fetchPage(gctx, n)
			if err != nil {
				return err
			}
			pages[n] = p.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var jobs []models.JobListing
	for _, records := range pages {
		for _, r := range records {
			if r.Status != "" && !strings.EqualFold(r.Status, "OPEN") {
				continue
			}
			job := c.toListing(r)
			if err := job.Validate(); err != nil {
				c.logger.Warn("Skipping invalid backend job", zap.String("job_id", r.ID), zap.Error(err))
				continue
			}
			jobs = append(jobs, job)
		}
	}

	c.logger.Debug("Fetched open jobs", zap.Int("pages", len(pages)), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*jobsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(c.pageSize))

	var out jobsPage
	if err := c.do(ctx, http.MethodGet, jobsPath+"?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("failed to fetch jobs page %d: %w", page, err)
	}
	return &out, nil
}

// Apply submits an application for jobID on behalf of the configured token.
func (c *Client) Apply(ctx context.Context, jobID string) error {
	path := fmt.Sprintf(applyPath, url.PathEscape(jobID))
	if err := c.do(ctx, http.MethodPost, path, nil); err != nil {
		return fmt.Errorf("failed to apply to job %s: %w", jobID, err)
	}
	return nil
}

// Submit lets the client act as the submitter of the application flow.
func (c *Client) Submit(ctx context.Context, req application.Request) error {
	return c.Apply(ctx, req.Job.ID)
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) toListing(r jobRecord) models.JobListing {
	posted := parseTimestamp(r.CreatedAt)

	var salary models.SalaryRange
	salary.Currency = "USD"
	if r.Salary != nil {
		salary.Min = *r.Salary
		salary.Max = *r.Salary
	}

	return models.JobListing{
		ID:           r.ID,
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.CompanyName),
		Location:     strings.TrimSpace(r.Location),
		LocationType: models.ParseLocationType(r.Location),
		Department:   models.DepartmentOther,
		Salary:       salary,
		PostedDate:   posted,
		Description:  plainText(r.Description),
		Requirements: []string{},
		IsNew:        !posted.IsZero() && c.now().Sub(posted) < newWindow,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the zoned and zone-less forms the backend emits.
// Zone-less values are taken as UTC.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// plainText strips markup from rich-text descriptions so that search
// matches what the user reads.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
