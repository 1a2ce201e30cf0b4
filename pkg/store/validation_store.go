package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/validationaction"
	"github.com/vydata/orchestrator/ent/validationrequest"
	"github.com/vydata/orchestrator/ent/validationresponse"
)

// CreateValidationRequestInput is the external payload for a new human
// validation ticket. GeneratedCode/TestResults/PRInfo are arbitrary
// JSON-marshalable values; the store serializes them to text columns.
// FilesModified accepts any of the upstream shapes the graph produces
// (map[string]string keyed by path, []string, a single string, or nil)
// and normalizes per invariant I-2.
type CreateValidationRequestInput struct {
	TaskID         int
	RunID          *int
	StepID         *int
	TaskTitle      string
	OriginalRequest string
	CodeSummary    string
	GeneratedCode  interface{}
	FilesModified  interface{}
	TestResults    interface{}
	PRInfo         interface{}
	ExpiresIn      time.Duration // defaults to 24h, per spec.md §4.6
	RequestedBy    string
	IdempotenceKey string
}

// ValidationResponseInput is what submit-response persists.
type ValidationResponseInput struct {
	ValidationID             string
	ResponseStatus           string // approved, rejected, expired, cancelled — never "pending" (I-3)
	Comments                 string
	ValidatedBy              string
	ShouldMerge              bool
	ShouldContinueWorkflow   bool
	RejectionCount           int
	ModificationInstructions string
	ShouldRetryWorkflow      bool
}

// ValidationActionInput describes a post-decision side effect to track.
type ValidationActionInput struct {
	ValidationID string
	ActionType   string
	Input        map[string]interface{}
}

// PendingValidation is one row of ListPending's output, enriched with
// the urgency/test-failure flags the human queue view needs.
type PendingValidation struct {
	Request        *ent.ValidationRequest
	IsUrgent       bool // expires within 1 hour
	HadTestFailure bool
}

// ValidationStats summarizes the validation queue for observability.
type ValidationStats struct {
	Total              int
	Pending            int
	Approved           int
	Rejected           int
	Expired            int
	AverageDurationMin float64
	Urgent             int
}

// ValidationStore implements the Validation Request/Response/Action
// slice of the Persistence Store contract (spec.md §4.6). On any
// failure other than a caller-supplied validation error, CreateRequest
// returns false rather than propagating: persistence of the request
// row is best-effort so a downed database never stalls the surrounding
// workflow. SubmitResponse is strict — a human decision is never
// silently dropped.
type ValidationStore struct {
	client *ent.Client
}

// NewValidationStore constructs a ValidationStore over an initialized ent client.
func NewValidationStore(client *ent.Client) *ValidationStore {
	return &ValidationStore{client: client}
}

// NormalizeFilesModified implements invariant I-2: the persisted shape
// is always []string, filtered of empty entries. A map is reduced to
// its keys (a dict-of-path-to-content upstream shape), a string is
// wrapped into a singleton list, and nil becomes an empty list.
func NormalizeFilesModified(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return filterEmpty(t)
	case string:
		return filterEmpty([]string{t})
	case map[string]string:
		out := make([]string, 0, len(t))
		for k := range t {
			out = append(out, k)
		}
		return filterEmpty(out)
	case map[string]interface{}:
		out := make([]string, 0, len(t))
		for k := range t {
			out = append(out, k)
		}
		return filterEmpty(out)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return filterEmpty(out)
	default:
		return []string{}
	}
}

func filterEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func serializeJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// CreateRequest creates a new Validation Request. It is idempotent on
// IdempotenceKey (when supplied) and, failing that, on an existing
// pending request for the same RunID — spec.md §4.6's
// "(run-id, validation-type) pair already exists" collapses to a
// single validation node in this graph, so run-id alone identifies it.
// On any persistence failure it logs nothing further up and returns
// false so the monday-validation node can continue (best-effort row,
// strict response path — see type doc).
func (s *ValidationStore) CreateRequest(ctx context.Context, in CreateValidationRequestInput) (*ent.ValidationRequest, bool) {
	if s.client == nil || in.TaskID == 0 {
		return nil, false
	}

	var out *ent.ValidationRequest
	err := withRetry(ctx, func() error {
		if in.IdempotenceKey != "" {
			existing, err := s.client.ValidationRequest.Query().
				Where(validationrequest.IdempotenceKeyEQ(in.IdempotenceKey)).
				Only(ctx)
			if err == nil {
				out = existing
				return nil
			}
			if !ent.IsNotFound(err) {
				return fmt.Errorf("load validation request by idempotence key: %w", err)
			}
		} else if in.RunID != nil {
			existing, err := s.client.ValidationRequest.Query().
				Where(
					validationrequest.RunIDEQ(*in.RunID),
					validationrequest.StatusEQ(validationrequest.StatusPending),
				).
				Only(ctx)
			if err == nil {
				out = existing
				return nil
			}
			if !ent.IsNotFound(err) {
				return fmt.Errorf("load validation request by run id: %w", err)
			}
		}

		expiresIn := in.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = 24 * time.Hour
		}

		create := s.client.ValidationRequest.Create().
			SetID(uuid.New().String()).
			SetTaskID(in.TaskID).
			SetTaskTitle(in.TaskTitle).
			SetOriginalRequest(in.OriginalRequest).
			SetCodeSummary(in.CodeSummary).
			SetGeneratedCode(serializeJSON(in.GeneratedCode)).
			SetFilesModified(NormalizeFilesModified(in.FilesModified)).
			SetTestResults(serializeJSON(in.TestResults)).
			SetPrInfo(serializeJSON(in.PRInfo)).
			SetExpiresAt(time.Now().UTC().Add(expiresIn)).
			SetStatus(validationrequest.StatusPending)
		if in.RunID != nil {
			create = create.SetRunID(*in.RunID)
		}
		if in.StepID != nil {
			create = create.SetStepID(*in.StepID)
		}
		if in.RequestedBy != "" {
			create = create.SetRequestedBy(in.RequestedBy)
		}
		if in.IdempotenceKey != "" {
			create = create.SetIdempotenceKey(in.IdempotenceKey)
		}

		created, err := create.Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				if classifyConstraintError(err) == ErrMissingReference {
					return ErrMissingReference
				}
				// Lost an idempotence race; reload.
				if in.IdempotenceKey != "" {
					existing, lerr := s.client.ValidationRequest.Query().
						Where(validationrequest.IdempotenceKeyEQ(in.IdempotenceKey)).
						Only(ctx)
					if lerr == nil {
						out = existing
						return nil
					}
				}
				return ErrConflict
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create validation request: %w", err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// GetRequest loads a Validation Request by its string id.
func (s *ValidationStore) GetRequest(ctx context.Context, validationID string) (*ent.ValidationRequest, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	req, err := s.client.ValidationRequest.Get(ctx, validationID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get validation request: %w", err)
	}
	return req, nil
}

// SubmitResponse persists a human's decision. It enforces that the
// request is still pending (I-3: a response is never attached to an
// already-terminal request) and computes the validation duration from
// the UTC-aware created_at/validated_at pair. The request/response/
// action trio is joined only by validation-id (spec.md §9 Design
// Notes "do not embed object pointers across aggregates"); status
// synchronization onto the parent request is modeled here as an
// explicit update inside the same transaction, standing in for the
// database trigger spec.md §4.6/§9 describes (ent does not itself run
// the migration's trigger DDL — see DESIGN.md).
func (s *ValidationStore) SubmitResponse(ctx context.Context, in ValidationResponseInput) (*ent.ValidationResponse, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.ValidationID == "" {
		return nil, NewValidationError("validation_id", "required")
	}
	if !isTerminalResponseStatus(in.ResponseStatus) {
		return nil, NewValidationError("response_status", "must be one of approved, rejected, expired, cancelled")
	}

	var out *ent.ValidationResponse
	err := withRetry(ctx, func() error {
		tx, err := s.client.Tx(ctx)
		if err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		defer tx.Rollback()

		req, err := tx.ValidationRequest.Get(ctx, in.ValidationID)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("load validation request: %w", err)
		}
		if req.Status != validationrequest.StatusPending {
			return NewValidationError("validation_id", "request is no longer pending")
		}

		created, err := tx.ValidationResponse.Create().
			SetValidationID(in.ValidationID).
			SetResponseStatus(validationresponse.ResponseStatus(in.ResponseStatus)).
			SetComments(in.Comments).
			SetValidatedAt(time.Now().UTC()).
			SetShouldMerge(in.ShouldMerge).
			SetShouldContinueWorkflow(in.ShouldContinueWorkflow).
			SetRejectionCount(in.RejectionCount).
			SetModificationInstructions(in.ModificationInstructions).
			SetShouldRetryWorkflow(in.ShouldRetryWorkflow).
			Save(ctx)
		if err != nil {
			return fmt.Errorf("create validation response: %w", err)
		}
		if in.ValidatedBy != "" {
			created, err = created.Update().SetValidatedBy(in.ValidatedBy).Save(ctx)
			if err != nil {
				return fmt.Errorf("set validated_by: %w", err)
			}
		}

		// Mirror the response status onto the request — see func doc.
		if _, err := tx.ValidationRequest.UpdateOneID(in.ValidationID).
			SetStatus(validationrequest.Status(in.ResponseStatus)).
			Save(ctx); err != nil {
			return fmt.Errorf("sync validation request status: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit validation response: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

func isTerminalResponseStatus(s string) bool {
	switch s {
	case "approved", "rejected", "expired", "cancelled":
		return true
	default:
		return false
	}
}

// ValidationPollInterval is the poll cadence WaitForResponse uses in
// production, per spec.md §4.6.
const ValidationPollInterval = 10 * time.Second

// WaitForResponse polls for a terminal response to validationID every
// ValidationPollInterval until one arrives, the request expires, or
// timeout elapses. It holds no database connection or transaction
// across the wait — each poll round is a fresh query, per spec.md §9
// Design Notes "Long human waits".
func (s *ValidationStore) WaitForResponse(ctx context.Context, validationID string, timeout time.Duration) (*ent.ValidationResponse, error) {
	return s.waitForResponse(ctx, validationID, timeout, ValidationPollInterval)
}

func (s *ValidationStore) waitForResponse(ctx context.Context, validationID string, timeout, pollInterval time.Duration) (*ent.ValidationResponse, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}

	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		resp, err := s.latestResponse(ctx, validationID)
		if err != nil && !errorsIsNotFound(err) {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}

		req, err := s.GetRequest(ctx, validationID)
		if err == nil && time.Now().After(req.ExpiresAt) {
			return nil, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func errorsIsNotFound(err error) bool {
	return err == ErrNotFound
}

func (s *ValidationStore) latestResponse(ctx context.Context, validationID string) (*ent.ValidationResponse, error) {
	resp, err := s.client.ValidationResponse.Query().
		Where(validationresponse.ValidationIDEQ(validationID)).
		Order(ent.Desc(validationresponse.FieldID)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query latest validation response: %w", err)
	}
	return resp, nil
}

// CreateAction records a post-decision side effect (merge, reject,
// notify, ...) as pending.
func (s *ValidationStore) CreateAction(ctx context.Context, in ValidationActionInput) (*ent.ValidationAction, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.ValidationID == "" || in.ActionType == "" {
		return nil, NewValidationError("validation_id/action_type", "required")
	}

	var out *ent.ValidationAction
	err := withRetry(ctx, func() error {
		created, err := s.client.ValidationAction.Create().
			SetValidationID(in.ValidationID).
			SetActionType(validationaction.ActionType(in.ActionType)).
			SetStatus(validationaction.StatusPending).
			SetInputBlob(in.Input).
			SetStartedAt(time.Now().UTC()).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create validation action: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// UpdateAction transitions an action's status, attaching its result or
// error and, for a merge, the commit hash.
func (s *ValidationStore) UpdateAction(ctx context.Context, actionID int, status string, result map[string]interface{}, actionErr string, mergeCommit string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		update := s.client.ValidationAction.UpdateOneID(actionID).
			SetStatus(validationaction.Status(status)).
			SetCompletedAt(time.Now().UTC())
		if result != nil {
			update = update.SetResultBlob(result)
		}
		if actionErr != "" {
			update = update.SetError(actionErr)
		}
		if mergeCommit != "" {
			update = update.SetMergeCommitHash(mergeCommit)
		}
		_, err := update.Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("update validation action: %w", err)
		}
		return nil
	})
}

// ListActions returns every action recorded against a validation, in
// creation order.
func (s *ValidationStore) ListActions(ctx context.Context, validationID string) ([]*ent.ValidationAction, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	actions, err := s.client.ValidationAction.Query().
		Where(validationaction.ValidationIDEQ(validationID)).
		Order(ent.Asc(validationaction.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list validation actions: %w", err)
	}
	return actions, nil
}

// ListPending returns the human validation queue ordered pending-first,
// then urgent (expiring within the hour), then most recent, per
// spec.md §4.6.
func (s *ValidationStore) ListPending(ctx context.Context, includeExpired bool) ([]PendingValidation, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}

	query := s.client.ValidationRequest.Query()
	if includeExpired {
		query = query.Where(
			validationrequest.StatusIn(validationrequest.StatusPending, validationrequest.StatusExpired),
		)
	} else {
		query = query.Where(validationrequest.StatusEQ(validationrequest.StatusPending))
	}

	reqs, err := query.Order(ent.Desc(validationrequest.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending validations: %w", err)
	}

	now := time.Now().UTC()
	out := make([]PendingValidation, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, PendingValidation{
			Request:        r,
			IsUrgent:       r.Status == validationrequest.StatusPending && r.ExpiresAt.Sub(now) <= time.Hour,
			HadTestFailure: hadTestFailure(r.TestResults),
		})
	}

	sortPending(out)
	return out, nil
}

func hadTestFailure(testResultsJSON string) bool {
	if testResultsJSON == "" {
		return false
	}
	var parsed struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal([]byte(testResultsJSON), &parsed); err != nil {
		return false
	}
	return !parsed.Success
}

// sortPending orders pending first, then urgent, then most recent —
// a small insertion sort is plenty at human-validation-queue scale.
func sortPending(items []PendingValidation) {
	rank := func(p PendingValidation) int {
		switch {
		case p.Request.Status == validationrequest.StatusPending && p.IsUrgent:
			return 0
		case p.Request.Status == validationrequest.StatusPending:
			return 1
		default:
			return 2
		}
	}
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && rank(items[j-1]) > rank(items[j]) {
			items[j-1], items[j] = items[j], items[j-1]
			j--
		}
	}
}

// Stats summarizes the validation queue.
func (s *ValidationStore) Stats(ctx context.Context) (ValidationStats, error) {
	if s.client == nil {
		return ValidationStats{}, ErrUnavailable
	}

	var stats ValidationStats
	total, err := s.client.ValidationRequest.Query().Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("count validation requests: %w", err)
	}
	stats.Total = total

	for status, dst := range map[validationrequest.Status]*int{
		validationrequest.StatusPending:  &stats.Pending,
		validationrequest.StatusApproved: &stats.Approved,
		validationrequest.StatusRejected: &stats.Rejected,
		validationrequest.StatusExpired:  &stats.Expired,
	} {
		n, err := s.client.ValidationRequest.Query().Where(validationrequest.StatusEQ(status)).Count(ctx)
		if err != nil {
			return stats, fmt.Errorf("count validation requests by status %s: %w", status, err)
		}
		*dst = n
	}

	urgent, err := s.client.ValidationRequest.Query().
		Where(
			validationrequest.StatusEQ(validationrequest.StatusPending),
			validationrequest.ExpiresAtLT(time.Now().UTC().Add(time.Hour)),
		).Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("count urgent validation requests: %w", err)
	}
	stats.Urgent = urgent

	responses, err := s.client.ValidationResponse.Query().All(ctx)
	if err != nil {
		return stats, fmt.Errorf("list validation responses for stats: %w", err)
	}
	if len(responses) > 0 {
		var totalMinutes float64
		counted := 0
		for _, r := range responses {
			req, err := s.client.ValidationRequest.Get(ctx, r.ValidationID)
			if err != nil {
				continue
			}
			totalMinutes += r.ValidatedAt.Sub(req.CreatedAt).Minutes()
			counted++
		}
		if counted > 0 {
			stats.AverageDurationMin = totalMinutes / float64(counted)
		}
	}

	return stats, nil
}
