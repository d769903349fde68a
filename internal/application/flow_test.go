package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jobboard-portal/internal/drafts"
	"jobboard-portal/internal/models"
	"jobboard-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testJob = models.JobListing{ID: "42", Title: "Senior Frontend Engineer", Company: "TechCorp Inc."}

type countingSubmitter struct {
	calls atomic.Int32
	err   error
}

func (s *countingSubmitter) Submit(context.Context, Request) error {
	s.calls.Add(1)
	return s.err
}

type recordingNotifier struct {
	reqs []Request
}

func (n *recordingNotifier) ApplicationSubmitted(_ context.Context, req Request) error {
	n.reqs = append(n.reqs, req)
	return nil
}

func newTestFlow(t *testing.T, sub Submitter, opts ...func(*Options)) (*Flow, *drafts.Manager) {
	t.Helper()
	dm := drafts.NewManager(store.NewMemoryStore(0), zap.NewNop())
	o := Options{
		SessionID: "session-1",
		Drafts:    dm,
		Submitter: sub,
		Rules:     DefaultFileRules(),
		Timeout:   time.Second,
		Logger:    zap.NewNop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewFlow(testJob, o), dm
}

// fillForm types a complete, valid application into f.
func fillForm(t *testing.T, f *Flow) models.DraftData {
	t.Helper()
	ctx := context.Background()
	d := validDraft()

	_, err := f.SetFields(ctx, map[string]string{
		drafts.FieldFullName:    d.FullName,
		drafts.FieldEmail:       d.Email,
		drafts.FieldPhone:       d.Phone,
		drafts.FieldCoverLetter: d.CoverLetter,
	})
	require.NoError(t, err)
	snap, err := f.AttachResume(ctx, *d.Resume)
	require.NoError(t, err)
	return snap.Data
}

func TestFlow_OpenRestoresDraft(t *testing.T) {
	ctx := context.Background()
	f, dm := newTestFlow(t, &countingSubmitter{})

	saved := models.DraftData{FullName: "Ada", Email: "ada@example.com"}
	dm.SaveDraft(ctx, testJob.ID, saved)

	snap := f.Open(ctx)
	assert.True(t, snap.Open)
	assert.True(t, snap.Restored)
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, saved, snap.Data)
}

func TestFlow_EditsAutosave(t *testing.T) {
	ctx := context.Background()
	f, dm := newTestFlow(t, &countingSubmitter{})
	f.Open(ctx)

	snap, err := f.SetField(ctx, drafts.FieldFullName, "Ada")
	require.NoError(t, err)
	assert.True(t, snap.Durable)

	got, ok := dm.LoadDraft(ctx, testJob.ID)
	require.True(t, ok)
	assert.Equal(t, "Ada", got.FullName)

	_, err = f.SetField(ctx, "salary", "lots")
	assert.ErrorIs(t, err, drafts.ErrUnknownField)
	got, _ = dm.LoadDraft(ctx, testJob.ID)
	assert.Equal(t, "Ada", got.FullName)
}

func TestFlow_ClosedFormRejectsEdits(t *testing.T) {
	f, _ := newTestFlow(t, &countingSubmitter{})

	_, err := f.SetField(context.Background(), drafts.FieldFullName, "Ada")
	assert.ErrorIs(t, err, ErrFlowClosed)

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFlowClosed)
}

func TestFlow_ShortCoverLetterBlocksSubmission(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	f, dm := newTestFlow(t, sub)
	f.Open(ctx)
	fillForm(t, f)

	_, err := f.SetField(ctx, drafts.FieldCoverLetter, "Too short")
	require.NoError(t, err)

	outcome, err := f.Submit(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cover letter must be at least 50 characters", verr.Fields["coverLetter"])
	assert.Equal(t, StateEditing, outcome.State)
	assert.Equal(t, int32(0), sub.calls.Load())

	d, ok := dm.LoadDraft(ctx, testJob.ID)
	require.True(t, ok)
	assert.Equal(t, "Too short", d.CoverLetter)
	assert.Equal(t, StateEditing, f.Snapshot().State)
}

func TestFlow_MissingResumeIsDistinctError(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	f, _ := newTestFlow(t, sub)
	f.Open(ctx)
	fillForm(t, f)

	_, _, err := f.DetachResume(ctx)
	require.NoError(t, err)

	_, err = f.Submit(ctx)
	var ferr *FileError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, CodeResumeRequired, ferr.Code)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Equal(t, int32(0), sub.calls.Load())
}

func TestFlow_AttachResumeChecksRules(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFlow(t, &countingSubmitter{})
	f.Open(ctx)

	_, err := f.AttachResume(ctx, models.FileDescriptor{Name: "huge.pdf", Size: 10 << 20})
	var ferr *FileError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, CodeFileTooLarge, ferr.Code)
	assert.Nil(t, f.Snapshot().Data.Resume)
}

func TestFlow_SuccessClearsDraft(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	notifier := &recordingNotifier{}
	f, dm := newTestFlow(t, sub, func(o *Options) { o.Notifier = notifier })
	f.Open(ctx)
	filled := fillForm(t, f)

	outcome, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "Application sent!", outcome.Notification.Title)
	assert.Contains(t, outcome.Notification.Message, "Senior Frontend Engineer")
	assert.Contains(t, outcome.Notification.Message, "TechCorp Inc.")

	_, ok := dm.LoadDraft(ctx, "42")
	assert.False(t, ok)

	snap := f.Snapshot()
	assert.False(t, snap.Open)
	assert.True(t, snap.Data.IsZero())
	assert.Equal(t, int32(1), sub.calls.Load())

	require.Len(t, notifier.reqs, 1)
	assert.Equal(t, filled, notifier.reqs[0].Draft)
	assert.Equal(t, "session-1", notifier.reqs[0].SessionID)

	// Reopening starts from an empty form.
	snap = f.Open(ctx)
	assert.False(t, snap.Restored)
	assert.True(t, snap.Data.IsZero())
}

func TestFlow_FailurePreservesState(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{err: errors.New("502 bad gateway")}
	f, dm := newTestFlow(t, sub)
	f.Open(ctx)
	filled := fillForm(t, f)

	outcome, err := f.Submit(ctx)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.False(t, serr.Timeout)
	assert.Equal(t, StateFailed, outcome.State)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "error", outcome.Notification.Kind)

	snap := f.Snapshot()
	assert.True(t, snap.Open)
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, filled, snap.Data)

	d, ok := dm.LoadDraft(ctx, testJob.ID)
	require.True(t, ok)
	assert.Equal(t, filled, d)

	// Retry succeeds once the backend recovers.
	sub.err = nil
	_, err = f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), sub.calls.Load())
}

func TestFlow_NoDoubleSubmit(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	sub := SubmitterFunc(func(ctx context.Context, _ Request) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	})

	f, _ := newTestFlow(t, sub)
	f.Open(ctx)
	fillForm(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(ctx)
		done <- err
	}()
	<-started

	assert.Equal(t, StateSubmitting, f.Snapshot().State)

	_, err := f.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	_, err = f.SetField(ctx, drafts.FieldFullName, "Someone Else")
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, f.Discard(ctx), ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFlow_CloseCancelsInFlightSubmission(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	sub := SubmitterFunc(func(ctx context.Context, _ Request) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	f, dm := newTestFlow(t, sub)
	f.Open(ctx)
	filled := fillForm(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(ctx)
		done <- err
	}()
	<-started
	f.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrFlowClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("submission was not cancelled")
	}

	snap := f.Snapshot()
	assert.False(t, snap.Open)
	assert.Nil(t, snap.Notification)

	d, ok := dm.LoadDraft(ctx, testJob.ID)
	require.True(t, ok)
	assert.Equal(t, filled, d)
}

func TestFlow_LateSuccessAfterCloseOnlyClearsDraft(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	sub := SubmitterFunc(func(context.Context, Request) error {
		close(started)
		<-release
		return nil
	})

	f, dm := newTestFlow(t, sub)
	f.Open(ctx)
	fillForm(t, f)

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		o, err := f.Submit(ctx)
		done <- result{o, err}
	}()
	<-started
	f.Close()

	// The form is reopened before the backend answers.
	reopened := f.Open(ctx)
	require.True(t, reopened.Open)

	close(release)
	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.outcome.Dismissed)

	_, ok := dm.LoadDraft(ctx, testJob.ID)
	assert.False(t, ok)

	snap := f.Snapshot()
	assert.True(t, snap.Open, "late result must not close the reopened form")
	assert.Equal(t, StateEditing, snap.State)
	assert.Nil(t, snap.Notification)
}

func TestFlow_Timeout(t *testing.T) {
	ctx := context.Background()
	sub := SubmitterFunc(func(ctx context.Context, _ Request) error {
		<-ctx.Done()
		return ctx.Err()
	})

	f, dm := newTestFlow(t, sub, func(o *Options) { o.Timeout = 20 * time.Millisecond })
	f.Open(ctx)
	fillForm(t, f)

	outcome, err := f.Submit(ctx)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, outcome.State)

	_, ok := dm.LoadDraft(ctx, testJob.ID)
	assert.True(t, ok)
}

func TestFlow_Discard(t *testing.T) {
	ctx := context.Background()
	f, dm := newTestFlow(t, &countingSubmitter{})
	f.Open(ctx)
	fillForm(t, f)

	require.NoError(t, f.Discard(ctx))

	_, ok := dm.LoadDraft(ctx, testJob.ID)
	assert.False(t, ok)
	assert.False(t, f.Snapshot().Open)
}

// unreadableStore fails the next failReads reads, then behaves normally.
type unreadableStore struct {
	*store.MemoryStore
	failReads atomic.Int32
}

func (u *unreadableStore) Get(ctx context.Context, key string) (string, error) {
	if u.failReads.Add(-1) >= 0 {
		return "", errors.New("connection reset")
	}
	return u.MemoryStore.Get(ctx, key)
}

// cancelAwareStore refuses removals once the caller's context is done, the
// way network-backed stores do.
type cancelAwareStore struct {
	*store.MemoryStore
}

func (c cancelAwareStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.MemoryStore.Remove(ctx, key)
}

func TestFlow_UnreadableDraftIsMergedNotOverwritten(t *testing.T) {
	ctx := context.Background()
	s := &unreadableStore{MemoryStore: store.NewMemoryStore(0)}
	dm := drafts.NewManager(s, zap.NewNop())
	stored := validDraft()
	require.True(t, dm.SaveDraft(ctx, testJob.ID, stored))

	f, _ := newTestFlow(t, &countingSubmitter{}, func(o *Options) { o.Drafts = dm })

	// The read on open and the retry on the first edit both fail.
	s.failReads.Store(2)
	snap := f.Open(ctx)
	assert.True(t, snap.Open)
	assert.False(t, snap.Durable)
	assert.False(t, snap.Restored)

	snap, err := f.SetField(ctx, drafts.FieldPhone, "5559999999")
	require.NoError(t, err)
	assert.False(t, snap.Durable)

	raw, err := s.MemoryStore.Get(ctx, drafts.Key(testJob.ID))
	require.NoError(t, err)
	kept, err := drafts.Decode(testJob.ID, raw)
	require.NoError(t, err)
	assert.Equal(t, stored, kept)

	// Readable again: both edits land on top of the stored draft.
	snap, err = f.SetField(ctx, drafts.FieldEmail, "ada@work.example")
	require.NoError(t, err)
	assert.True(t, snap.Durable)
	assert.True(t, snap.Restored)

	want := stored
	want.Phone = "5559999999"
	want.Email = "ada@work.example"
	assert.Equal(t, want, snap.Data)

	got, ok := dm.LoadDraft(ctx, testJob.ID)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFlow_SuccessClearsDraftAfterClientLeaves(t *testing.T) {
	dm := drafts.NewManager(cancelAwareStore{store.NewMemoryStore(0)}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := SubmitterFunc(func(context.Context, Request) error {
		cancel()
		return nil
	})
	f, _ := newTestFlow(t, sub, func(o *Options) { o.Drafts = dm })
	f.Open(ctx)
	fillForm(t, f)

	outcome, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)

	_, ok := dm.LoadDraft(context.Background(), testJob.ID)
	assert.False(t, ok)
}
