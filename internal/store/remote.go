package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

// ErrBackendStatus indicates the backend answered with a non-2xx status.
var ErrBackendStatus = errors.New("backend returned non-success status")

// Backend REST paths.
const (
	pathFeedback       = "/rest/v1/af_feedback"
	pathPatterns       = "/rest/v1/af_learned_patterns"
	pathUpsertPattern  = "/rest/v1/rpc/update_pattern_frequency"
	pathWorkflowEvents = "/rest/v1/af_workflow_events"
)

const (
	remoteRateLimit    = 10
	remoteRateBurst    = 5
	maxErrorBodyLength = 200
)

// RemoteStore writes rows to a PostgREST-style backend. Workflow events are
// also written to the local store, which serves as their audit trail.
type RemoteStore struct {
	baseURL     string
	key         config.Secret
	readKey     config.Secret
	writeClient *http.Client
	readClient  *http.Client
	limiter     *rate.Limiter
	local       *LocalStore
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewRemoteStore creates a remote store. Writes use cfg.WriteTimeout and
// reads cfg.ReadTimeout. Reads authenticate with ReadKey when set.
func NewRemoteStore(cfg config.BackendConfig, local *LocalStore, logger *zap.Logger, m *metrics.Metrics) *RemoteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	readKey := cfg.ReadKey
	if !readKey.IsSet() {
		readKey = cfg.Key
	}
	return &RemoteStore{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		key:         cfg.Key,
		readKey:     readKey,
		writeClient: &http.Client{Timeout: cfg.WriteTimeout},
		readClient:  &http.Client{Timeout: cfg.ReadTimeout},
		limiter:     rate.NewLimiter(rate.Limit(remoteRateLimit), remoteRateBurst),
		local:       local,
		logger:      logger.Named("store.remote"),
		metrics:     m,
	}
}

// Mode returns learning.ModeRemote.
func (s *RemoteStore) Mode() learning.Mode {
	return learning.ModeRemote
}

// feedbackRow is the backend shape of a FeedbackRecord. Fields without a
// column travel in metadata.
type feedbackRow struct {
	ID          string        `json:"id,omitempty"`
	SessionID   string        `json:"session_id,omitempty"`
	WorkflowID  string        `json:"workflow_id,omitempty"`
	ProjectName string        `json:"project_name,omitempty"`
	Type        learning.Kind `json:"feedback_type"`
	Reason      string        `json:"reason"`
	Rating      int           `json:"rating"`
	Metadata    feedbackMeta  `json:"metadata"`
	CreatedAt   time.Time     `json:"created_at"`
}

type feedbackMeta struct {
	Category    string  `json:"category,omitempty"`
	Rule        string  `json:"rule,omitempty"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Source      string  `json:"source,omitempty"`
	Agent       string  `json:"agent,omitempty"`
}

func toFeedbackRow(rec *learning.FeedbackRecord) feedbackRow {
	return feedbackRow{
		ID:          rec.ID,
		SessionID:   rec.SessionID,
		WorkflowID:  rec.WorkflowID,
		ProjectName: rec.ProjectName,
		Type:        rec.Kind,
		Reason:      rec.Reason,
		Rating:      rec.Rating,
		Metadata: feedbackMeta{
			Category:    rec.Category,
			Rule:        rec.Rule,
			Fingerprint: rec.Fingerprint,
			Confidence:  rec.Confidence,
			Source:      rec.Source,
			Agent:       rec.Agent,
		},
		CreatedAt: rec.CreatedAt,
	}
}

func (r feedbackRow) record() learning.FeedbackRecord {
	return learning.FeedbackRecord{
		ID:          r.ID,
		SessionID:   r.SessionID,
		WorkflowID:  r.WorkflowID,
		ProjectName: r.ProjectName,
		Agent:       r.Metadata.Agent,
		Kind:        r.Type,
		Reason:      r.Reason,
		Rating:      r.Rating,
		Category:    r.Metadata.Category,
		Rule:        r.Metadata.Rule,
		Fingerprint: r.Metadata.Fingerprint,
		Confidence:  r.Metadata.Confidence,
		Source:      r.Metadata.Source,
		CreatedAt:   r.CreatedAt,
	}
}

// upsertPatternArgs are the arguments of the update_pattern_frequency RPC.
type upsertPatternArgs struct {
	PatternType string   `json:"p_pattern_type"`
	Category    string   `json:"p_category"`
	Rule        string   `json:"p_rule"`
	Description string   `json:"p_description"`
	Evidence    []string `json:"p_evidence"`
	Frequency   int      `json:"p_frequency"`
}

// AppendFeedback inserts one af_feedback row.
func (s *RemoteStore) AppendFeedback(ctx context.Context, rec *learning.FeedbackRecord) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opAppendFeedback, learning.ModeRemote, start, err) }()

	prepareFeedback(rec, time.Now().UTC())
	if err = s.do(ctx, s.writeClient, s.key, http.MethodPost, pathFeedback, nil, toFeedbackRow(rec), nil); err != nil {
		return fmt.Errorf("storing feedback: %w", err)
	}
	return nil
}

// UpsertPattern calls the update_pattern_frequency RPC, which creates the
// pattern or increments its frequency server side.
func (s *RemoteStore) UpsertPattern(ctx context.Context, p *learning.LearnedPattern) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opUpsertPattern, learning.ModeRemote, start, err) }()

	args := upsertPatternArgs{
		PatternType: p.PatternType,
		Category:    p.Category,
		Rule:        p.Rule,
		Description: p.Description,
		Evidence:    keepLast(p.Evidence, MaxEvidence),
		Frequency:   max(p.Frequency, 1),
	}
	if args.Evidence == nil {
		args.Evidence = []string{}
	}
	if err = s.do(ctx, s.writeClient, s.key, http.MethodPost, pathUpsertPattern, nil, args, nil); err != nil {
		return fmt.Errorf("storing pattern %s: %w", p.Key(), err)
	}
	return nil
}

// AppendWorkflowEvent writes ev locally, then remotely. Both errors are
// returned joined.
func (s *RemoteStore) AppendWorkflowEvent(ctx context.Context, ev *learning.WorkflowEvent) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opAppendWorkflowEvent, learning.ModeRemote, start, err) }()

	prepareEvent(ev, time.Now().UTC())
	localErr := s.local.AppendWorkflowEvent(ctx, ev)
	if localErr != nil {
		s.logger.Warn("failed to write local workflow event", zap.Error(localErr))
	}

	var remoteErr error
	if e := s.do(ctx, s.writeClient, s.key, http.MethodPost, pathWorkflowEvents, nil, ev, nil); e != nil {
		remoteErr = fmt.Errorf("storing workflow event: %w", e)
	}
	return errors.Join(localErr, remoteErr)
}

// Patterns returns patterns ordered by frequency. A limit of 0 returns all.
func (s *RemoteStore) Patterns(ctx context.Context, limit int) (_ []learning.LearnedPattern, err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opPatterns, learning.ModeRemote, start, err) }()

	q := url.Values{"select": {"*"}, "order": {"frequency.desc"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var patterns []learning.LearnedPattern
	if err = s.do(ctx, s.readClient, s.readKey, http.MethodGet, pathPatterns, q, nil, &patterns); err != nil {
		return nil, fmt.Errorf("reading patterns: %w", err)
	}
	return patterns, nil
}

// RecentFeedback returns records newest first. A limit of 0 returns all.
func (s *RemoteStore) RecentFeedback(ctx context.Context, limit int) (_ []learning.FeedbackRecord, err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opRecentFeedback, learning.ModeRemote, start, err) }()

	q := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []feedbackRow
	if err = s.do(ctx, s.readClient, s.readKey, http.MethodGet, pathFeedback, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("reading feedback: %w", err)
	}
	records := make([]learning.FeedbackRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// do sends one request. A non-nil body is sent as JSON; a non-nil out
// receives the decoded response.
func (s *RemoteStore) do(ctx context.Context, client *http.Client, key config.Secret, method, path string, query url.Values, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", key.Value())
	req.Header.Set("Authorization", "Bearer "+key.Value())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %d %s", ErrBackendStatus, method, path, resp.StatusCode, truncateBody(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBodyLength {
		return s[:maxErrorBodyLength]
	}
	return s
}
