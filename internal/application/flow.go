package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jobboard-portal/internal/drafts"
	"jobboard-portal/internal/models"

	"go.uber.org/zap"
)

type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrFlowClosed       = errors.New("application form is closed")
)

// SubmissionError wraps a rejected or timed out submission. The form and
// its draft are left untouched so the user can retry.
type SubmissionError struct {
	Timeout bool
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Timeout {
		return "submission timed out"
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Notification is the user-facing message produced by the last submit.
type Notification struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Snapshot is a read-only copy of a flow.
type Snapshot struct {
	JobID        string           `json:"jobId"`
	JobTitle     string           `json:"jobTitle"`
	Company      string           `json:"company"`
	Open         bool             `json:"open"`
	State        State            `json:"state"`
	Restored     bool             `json:"restored"`
	Durable      bool             `json:"durable"`
	Data         models.DraftData `json:"data"`
	Notification *Notification    `json:"notification,omitempty"`
}

// Outcome is the result of a Submit call.
type Outcome struct {
	State        State         `json:"state"`
	Notification *Notification `json:"notification,omitempty"`
	// Dismissed is set when the form was closed before the backend answered.
	Dismissed bool `json:"dismissed,omitempty"`
}

type Options struct {
	SessionID string
	Drafts    *drafts.Manager
	Submitter Submitter
	Notifier  Notifier
	Rules     FileRules
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Flow is the application form of one job inside one session.
type Flow struct {
	job       models.JobListing
	sessionID string
	drafts    *drafts.Manager
	submitter Submitter
	notifier  Notifier
	rules     FileRules
	timeout   time.Duration
	logger    *zap.Logger

	mu           sync.Mutex
	open         bool
	state        State
	restored     bool
	durable      bool
	data         models.DraftData
	notification *Notification
	generation   uint64
	cancel       context.CancelFunc

	// unread is set while the stored draft could not be read. Edits are
	// then tracked in edited and merged over the stored draft once a read
	// succeeds, instead of overwriting it.
	unread       bool
	edited       map[string]bool
	resumeEdited bool
}

func NewFlow(job models.JobListing, opts Options) *Flow {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		job:       job,
		sessionID: opts.SessionID,
		drafts:    opts.Drafts,
		submitter: opts.Submitter,
		notifier:  opts.Notifier,
		rules:     opts.Rules,
		timeout:   opts.Timeout,
		logger:    logger.With(zap.String("job_id", job.ID)),
		state:     StateEditing,
		durable:   true,
		edited:    make(map[string]bool),
	}
}

func (f *Flow) Job() models.JobListing {
	return f.job
}

// Open shows the form, restoring any saved draft. Opening an already open
// form is a no-op.
func (f *Flow) Open(ctx context.Context) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.open {
		return f.snapshot()
	}
	f.open = true
	f.state = StateEditing
	f.notification = nil
	f.resetEdits()

	d, found, err := f.drafts.ReadDraft(ctx, f.job.ID)
	f.data, f.restored = d, found
	f.durable = err == nil
	if err != nil {
		f.unread = true
		f.logger.Warn("Stored draft unavailable, editing in memory", zap.Error(err))
	}
	return f.snapshot()
}

// resetEdits must be called with f.mu held.
func (f *Flow) resetEdits() {
	f.unread = false
	f.edited = make(map[string]bool)
	f.resumeEdited = false
}

// autosave writes the current form to the draft store. While the stored
// draft is unread it first retries the read; on success the edits made so
// far are applied on top of the stored draft. Must be called with f.mu held.
func (f *Flow) autosave(ctx context.Context) {
	if f.unread {
		stored, found, err := f.drafts.ReadDraft(ctx, f.job.ID)
		if err != nil {
			f.durable = false
			return
		}
		f.unread = false
		if found {
			f.data = f.mergeEdits(stored)
			f.restored = true
		}
	}
	f.durable = f.drafts.SaveDraft(ctx, f.job.ID, f.data)
}

// mergeEdits returns base with the fields edited in this flow applied.
func (f *Flow) mergeEdits(base models.DraftData) models.DraftData {
	for field := range f.edited {
		if v, err := drafts.FieldValue(f.data, field); err == nil {
			drafts.SetField(&base, field, v)
		}
	}
	if f.resumeEdited {
		base.Resume = f.data.Resume
	}
	return base
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Flow) snapshot() Snapshot {
	s := Snapshot{
		JobID:    f.job.ID,
		JobTitle: f.job.Title,
		Company:  f.job.Company,
		Open:     f.open,
		State:    f.state,
		Restored: f.restored,
		Durable:  f.durable,
		Data:     f.data,
	}
	if f.data.Resume != nil {
		r := *f.data.Resume
		s.Data.Resume = &r
	}
	if f.notification != nil {
		n := *f.notification
		s.Notification = &n
	}
	return s
}

// editable must be called with f.mu held.
func (f *Flow) editable() error {
	if !f.open {
		return ErrFlowClosed
	}
	if f.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	return nil
}

// SetFields applies a batch of field edits as one change and autosaves the
// draft before returning.
func (f *Flow) SetFields(ctx context.Context, changes map[string]string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return f.snapshot(), err
	}

	next := f.data
	for field, value := range changes {
		if err := drafts.SetField(&next, field, value); err != nil {
			return f.snapshot(), err
		}
	}
	f.data = next
	for field := range changes {
		f.edited[field] = true
	}
	f.autosave(ctx)
	return f.snapshot(), nil
}

func (f *Flow) SetField(ctx context.Context, field, value string) (Snapshot, error) {
	return f.SetFields(ctx, map[string]string{field: value})
}

// AttachResume records the resume descriptor after checking the file rules.
func (f *Flow) AttachResume(ctx context.Context, fd models.FileDescriptor) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return f.snapshot(), err
	}
	if err := f.rules.Check(&fd); err != nil {
		return f.snapshot(), err
	}
	f.data.Resume = &fd
	f.resumeEdited = true
	f.autosave(ctx)
	return f.snapshot(), nil
}

// DetachResume removes the resume and returns the descriptor that was
// attached, if any.
func (f *Flow) DetachResume(ctx context.Context) (*models.FileDescriptor, Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return nil, f.snapshot(), err
	}
	old := f.data.Resume
	f.data.Resume = nil
	f.resumeEdited = true
	f.autosave(ctx)
	return old, f.snapshot(), nil
}

// Submit validates the form and hands it to the submitter. The flow lock is
// not held while waiting, so Close and Snapshot stay responsive; edits and a
// second Submit are refused until the call returns.
func (f *Flow) Submit(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if err := f.editable(); err != nil {
		f.mu.Unlock()
		return Outcome{}, err
	}

	f.state = StateValidating
	f.notification = nil
	if err := Validate(f.data); err != nil {
		f.state = StateEditing
		f.mu.Unlock()
		return Outcome{State: StateEditing}, err
	}
	if err := f.rules.Check(f.data.Resume); err != nil {
		f.state = StateEditing
		n := &Notification{Kind: "error", Title: "Cannot submit application", Message: err.Error()}
		f.notification = n
		f.mu.Unlock()
		return Outcome{State: StateEditing, Notification: n}, err
	}

	f.state = StateSubmitting
	gen := f.generation
	var subCtx context.Context
	var cancel context.CancelFunc
	if f.timeout > 0 {
		subCtx, cancel = context.WithTimeout(ctx, f.timeout)
	} else {
		subCtx, cancel = context.WithCancel(ctx)
	}
	f.cancel = cancel
	req := Request{SessionID: f.sessionID, Job: f.job, Draft: f.data}
	f.mu.Unlock()

	f.logger.Info("Submitting application", zap.String("session_id", f.sessionID))
	err := f.submitter.Submit(subCtx, req)
	timedOut := errors.Is(subCtx.Err(), context.DeadlineExceeded)
	cancel()

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return f.lateResult(ctx, req, err)
	}
	f.cancel = nil

	if err != nil {
		f.state = StateEditing
		f.notification = &Notification{
			Kind:    "error",
			Title:   "Failed to submit application",
			Message: fmt.Sprintf("Your application for %s could not be sent. Your answers are saved, please try again.", f.job.Label()),
		}
		outcome := Outcome{State: StateFailed, Notification: f.notification}
		f.mu.Unlock()

		f.logger.Warn("Application submission failed", zap.Bool("timeout", timedOut), zap.Error(err))
		return outcome, &SubmissionError{Timeout: timedOut, Err: err}
	}

	f.drafts.ClearDraft(context.WithoutCancel(ctx), f.job.ID)
	f.data = models.DraftData{}
	f.restored = false
	f.resetEdits()
	f.open = false
	f.state = StateSucceeded
	f.generation++
	f.notification = &Notification{
		Kind:    "success",
		Title:   "Application sent!",
		Message: fmt.Sprintf("Your application for %s at %s has been submitted.", f.job.Title, f.job.Company),
	}
	outcome := Outcome{State: StateSucceeded, Notification: f.notification}
	f.mu.Unlock()

	f.logger.Info("Application submitted", zap.String("session_id", f.sessionID))
	f.notify(ctx, req)
	return outcome, nil
}

// lateResult handles a submitter answer that arrived after the form was
// closed. Only the persisted draft is touched.
func (f *Flow) lateResult(ctx context.Context, req Request, err error) (Outcome, error) {
	if err != nil {
		f.logger.Info("Dropping result of dismissed submission", zap.Error(err))
		return Outcome{Dismissed: true}, ErrFlowClosed
	}
	f.logger.Info("Dismissed submission was accepted, clearing draft")
	f.drafts.ClearDraft(context.WithoutCancel(ctx), f.job.ID)
	f.notify(ctx, req)
	return Outcome{State: StateSucceeded, Dismissed: true}, nil
}

func (f *Flow) notify(ctx context.Context, req Request) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.ApplicationSubmitted(context.WithoutCancel(ctx), req); err != nil {
		f.logger.Warn("Failed to send application confirmation", zap.Error(err))
	}
}

// Close dismisses the form. An in-flight submission is cancelled and its
// result will not change this flow. The draft stays persisted.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.generation++
	f.open = false
	f.state = StateEditing
	f.data = models.DraftData{}
	f.restored = false
	f.resetEdits()
	f.notification = nil
}

// Discard throws the draft away and closes the form.
func (f *Flow) Discard(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	f.drafts.ClearDraft(ctx, f.job.ID)
	f.generation++
	f.open = false
	f.state = StateEditing
	f.data = models.DraftData{}
	f.restored = false
	f.resetEdits()
	f.notification = nil
	return nil
}
