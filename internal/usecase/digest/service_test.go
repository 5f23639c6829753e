package digest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/repository"
	"dev-digest/internal/resilience/circuitbreaker"
	"dev-digest/internal/resilience/retry"
	digestUC "dev-digest/internal/usecase/digest"
)

/* ───────── stub collaborators ───────── */

type stubRecipientRepo struct {
	recipient *entity.Recipient
	prefs     *entity.Preferences
	getErr    error
	prefsErr  error
}

func (s *stubRecipientRepo) Get(_ context.Context, _ int64) (*entity.Recipient, error) {
	return s.recipient, s.getErr
}

func (s *stubRecipientRepo) ListActive(_ context.Context) ([]*entity.Recipient, error) {
	if s.recipient == nil {
		return nil, nil
	}
	return []*entity.Recipient{s.recipient}, nil
}

func (s *stubRecipientRepo) GetPreferences(_ context.Context, _ int64) (*entity.Preferences, error) {
	return s.prefs, s.prefsErr
}

func (s *stubRecipientRepo) Counts(_ context.Context) (int, int, error) {
	return 1, 1, nil
}

type stubHistoryRepo struct {
	appended  []*entity.DeliveryOutcome
	appendErr error
}

func (s *stubHistoryRepo) Append(_ context.Context, outcome *entity.DeliveryOutcome) error {
	s.appended = append(s.appended, outcome)
	return s.appendErr
}

func (s *stubHistoryRepo) ListByRecipient(_ context.Context, _ int64, _ int) ([]*entity.DeliveryOutcome, error) {
	return s.appended, nil
}

func (s *stubHistoryRepo) StatsSince(_ context.Context, _ time.Time) (repository.DayStats, error) {
	return repository.DayStats{}, nil
}

func (s *stubHistoryRepo) LastSentAt(_ context.Context) (*time.Time, error) {
	return nil, nil
}

// stubAdapter implements digest.SourceAdapter with canned results.
type stubAdapter struct {
	category entity.Category
	source   string
	items    []entity.Item
	err      error
	panicMsg string
	calls    atomic.Int32

	// applicableFn overrides Applicable; nil means always applicable.
	applicableFn func(*entity.Preferences) bool
}

func (a *stubAdapter) Category() entity.Category { return a.category }
func (a *stubAdapter) Source() string            { return a.source }

func (a *stubAdapter) Applicable(prefs *entity.Preferences) bool {
	if a.applicableFn == nil {
		return true
	}
	return a.applicableFn(prefs)
}

func (a *stubAdapter) Fetch(_ context.Context, _ *entity.Preferences) ([]entity.Item, error) {
	a.calls.Add(1)
	if a.panicMsg != "" {
		panic(a.panicMsg)
	}
	return a.items, a.err
}

type stubComposer struct{}

func (stubComposer) Compose(_ *entity.Recipient, payload entity.Payload, kind entity.DigestKind) (string, string) {
	if kind == entity.KindWelcome {
		return "welcome", "welcome body"
	}
	return "daily", "daily body"
}

type stubChannel struct {
	sendErr  error
	sent     atomic.Int32
	lastAddr string
}

func (c *stubChannel) Send(_ context.Context, address, _, _ string) error {
	c.sent.Add(1)
	c.lastAddr = address
	return c.sendErr
}

/* ───────── helpers ───────── */

func activeRecipient() *entity.Recipient {
	return &entity.Recipient{
		ID: 1, Name: "Ada", Email: "ada@example.com",
		Active: true, Timezone: "UTC", CreatedAt: time.Now(),
	}
}

func validPrefs() *entity.Preferences {
	return &entity.Preferences{
		RecipientID:  1,
		Repositories: []string{"octo/repo"},
	}
}

func fastBreakers() *circuitbreaker.Registry {
	return circuitbreaker.NewRegistry(nil)
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func newService(
	t *testing.T,
	recipients *stubRecipientRepo,
	history *stubHistoryRepo,
	channel *stubChannel,
	adapters ...digestUC.SourceAdapter,
) *digestUC.Service {
	t.Helper()
	agg, err := digestUC.NewAggregator(adapters, fastBreakers(), fastRetry())
	if err != nil {
		t.Fatalf("NewAggregator err=%v", err)
	}
	return digestUC.NewService(recipients, history, agg, stubComposer{}, channel)
}

func items(category entity.Category, n int) []entity.Item {
	out := make([]entity.Item, n)
	for i := range out {
		out[i] = entity.Item{Category: category, Title: "item"}
	}
	return out
}

/* ───────── orchestrator tests ───────── */

func TestRun_SentWithItems(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{}
	channel := &stubChannel{}
	issues := &stubAdapter{category: entity.CategoryIssues, source: "github", items: items(entity.CategoryIssues, 2)}
	pulls := &stubAdapter{category: entity.CategoryPulls, source: "github"}

	svc := newService(t, recipients, history, channel, issues, pulls)
	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if status != digestUC.RunSent {
		t.Fatalf("status = %s, want sent", status)
	}
	if channel.sent.Load() != 1 || channel.lastAddr != "ada@example.com" {
		t.Errorf("channel: sent=%d addr=%q", channel.sent.Load(), channel.lastAddr)
	}
	if len(history.appended) != 1 {
		t.Fatalf("expected exactly one history record, got %d", len(history.appended))
	}
	outcome := history.appended[0]
	if outcome.Status != entity.StatusSent || outcome.ItemCount != 2 || outcome.Kind != entity.KindDaily {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestRun_RecipientAbsent(t *testing.T) {
	recipients := &stubRecipientRepo{}
	history := &stubHistoryRepo{}
	channel := &stubChannel{}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github"})

	status, err := svc.Run(context.Background(), 42, entity.KindDaily)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if status != digestUC.RunNotSent {
		t.Fatalf("status = %s, want not_sent", status)
	}
	if len(history.appended) != 0 {
		t.Fatalf("early exit must not write history, got %d records", len(history.appended))
	}
}

func TestRun_RecipientInactive(t *testing.T) {
	inactive := activeRecipient()
	inactive.Active = false
	recipients := &stubRecipientRepo{recipient: inactive, prefs: validPrefs()}
	history := &stubHistoryRepo{}
	svc := newService(t, recipients, history, &stubChannel{},
		&stubAdapter{category: entity.CategoryIssues, source: "github"})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if err != nil || status != digestUC.RunNotSent {
		t.Fatalf("Run = (%s, %v), want (not_sent, nil)", status, err)
	}
	if len(history.appended) != 0 {
		t.Fatal("inactive recipient must not write history")
	}
}

func TestRun_PreferencesAbsent(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient()}
	history := &stubHistoryRepo{}
	svc := newService(t, recipients, history, &stubChannel{},
		&stubAdapter{category: entity.CategoryIssues, source: "github"})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if err != nil || status != digestUC.RunNotSent {
		t.Fatalf("Run = (%s, %v), want (not_sent, nil)", status, err)
	}
	if len(history.appended) != 0 {
		t.Fatal("absent preferences must not write history")
	}
}

func TestRun_DailyEmptyPayloadSkips(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{}
	channel := &stubChannel{}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github"})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if status != digestUC.RunSkipped {
		t.Fatalf("status = %s, want skipped", status)
	}
	if channel.sent.Load() != 0 {
		t.Fatal("skipped run must not invoke delivery")
	}
	if len(history.appended) != 1 {
		t.Fatalf("expected one history record, got %d", len(history.appended))
	}
	outcome := history.appended[0]
	if outcome.Status != entity.StatusSkipped || outcome.ItemCount != 0 || outcome.Error != "" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestRun_WelcomeAlwaysSends(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{}
	channel := &stubChannel{}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github"})

	status, err := svc.Run(context.Background(), 1, entity.KindWelcome)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if status != digestUC.RunSent {
		t.Fatalf("status = %s, want sent even with zero items", status)
	}
	if channel.sent.Load() != 1 {
		t.Fatal("welcome digest must invoke delivery")
	}
	if history.appended[0].Kind != entity.KindWelcome || history.appended[0].ItemCount != 0 {
		t.Errorf("unexpected outcome: %+v", history.appended[0])
	}
}

func TestRun_DeliveryFailure(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{}
	channel := &stubChannel{sendErr: errors.New("smtp: connection refused")}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github", items: items(entity.CategoryIssues, 3)})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if status != digestUC.RunFailed {
		t.Fatalf("status = %s, want failed", status)
	}
	if err == nil || err.Error() != "smtp: connection refused" {
		t.Fatalf("err = %v, want the delivery error text", err)
	}
	outcome := history.appended[0]
	if outcome.Status != entity.StatusFailed {
		t.Errorf("outcome status = %s", outcome.Status)
	}
	if outcome.Error != "smtp: connection refused" {
		t.Errorf("outcome error = %q", outcome.Error)
	}
	if outcome.ItemCount != 3 {
		t.Errorf("failed outcome must keep the computed count, got %d", outcome.ItemCount)
	}
}

func TestRun_PanicBecomesFailedOutcome(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{}
	channel := &stubChannel{}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github", panicMsg: "boom"})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if status != digestUC.RunFailed {
		t.Fatalf("status = %s, want failed", status)
	}
	if err == nil {
		t.Fatal("expected an error describing the panic")
	}
	if len(history.appended) != 1 {
		t.Fatalf("expected exactly one history record, got %d", len(history.appended))
	}
	if history.appended[0].Status != entity.StatusFailed {
		t.Errorf("outcome status = %s", history.appended[0].Status)
	}
}

func TestRun_HistoryAppendFailureDoesNotChangeStatus(t *testing.T) {
	recipients := &stubRecipientRepo{recipient: activeRecipient(), prefs: validPrefs()}
	history := &stubHistoryRepo{appendErr: errors.New("db down")}
	channel := &stubChannel{}
	svc := newService(t, recipients, history, channel,
		&stubAdapter{category: entity.CategoryIssues, source: "github", items: items(entity.CategoryIssues, 1)})

	status, err := svc.Run(context.Background(), 1, entity.KindDaily)
	if err != nil || status != digestUC.RunSent {
		t.Fatalf("Run = (%s, %v), want (sent, nil)", status, err)
	}
}
