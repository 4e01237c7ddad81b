package proposal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codevanta/propgate/internal/db"
)

// ErrNotFound is returned when a proposal id does not exist.
var ErrNotFound = errors.New("proposal not found")

// Store provides CRUD operations for proposals.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new proposal. If p.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, p *Proposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.TestResults == "" {
		p.TestResults = "[]"
	}

	var parent sql.NullString
	if p.ParentID != "" {
		parent = sql.NullString{String: p.ParentID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (
			id, agent_type, file_path, code_before, code_after,
			improvement_type, reasoning, confidence, status,
			code_hash, semantic_hash, quality_score, approval_probability,
			recommendation, test_output, test_results, parent_id, generation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		string(p.AgentType),
		p.FilePath,
		p.CodeBefore,
		p.CodeAfter,
		p.ImprovementType,
		p.Reasoning,
		p.Confidence,
		string(p.Status),
		p.CodeHash,
		p.SemanticHash,
		p.QualityScore,
		p.ApprovalProbability,
		string(p.Recommendation),
		p.TestOutput,
		p.TestResults,
		parent,
		p.Generation,
	)
	if err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}
	return nil
}

const proposalColumns = `id, agent_type, file_path, code_before, code_after,
	improvement_type, reasoning, confidence, status, code_hash, semantic_hash,
	quality_score, approval_probability, recommendation, test_output,
	test_results, parent_id, generation, created_at, updated_at`

// GetByID retrieves a single proposal.
func (s *Store) GetByID(ctx context.Context, id string) (*Proposal, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+proposalColumns+" FROM proposals WHERE id = ?", id)

	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListFilter controls which proposals are returned by List.
type ListFilter struct {
	Status    Status
	AgentType AgentType
	Limit     int
	Offset    int
}

// List returns proposals matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Proposal, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AgentType != "" {
		clauses = append(clauses, "agent_type = ?")
		args = append(args, string(filter.AgentType))
	}

	query := "SELECT " + proposalColumns + " FROM proposals"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying proposals: %w", err)
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

// CountPending returns the number of pending proposals for the given agent.
// This backs the admission-control ceiling.
func (s *Store) CountPending(ctx context.Context, agent AgentType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM proposals WHERE agent_type = ? AND status = ?",
		string(agent), string(StatusPending),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending proposals: %w", err)
	}
	return count, nil
}

// FindDuplicate returns an in-flight proposal sharing either hash, or nil.
// Finalized proposals (rejected, expired, accepted, applied) do not block.
func (s *Store) FindDuplicate(ctx context.Context, codeHash, semanticHash string) (*Proposal, error) {
	placeholders := make([]string, len(ActiveStatuses))
	args := []any{codeHash, semanticHash}
	for i, st := range ActiveStatuses {
		placeholders[i] = "?"
		args = append(args, string(st))
	}

	query := "SELECT " + proposalColumns + ` FROM proposals
		WHERE (code_hash = ? OR semantic_hash = ?)
		AND status IN (` + strings.Join(placeholders, ",") + `) LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying duplicates: %w", err)
	}
	return p, nil
}

// UpdateStatus transitions a proposal to a new status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE proposals SET status = ?, updated_at = datetime('now') WHERE id = ?",
		string(status), id)
	if err != nil {
		return fmt.Errorf("updating proposal status: %w", err)
	}
	return requireRow(res)
}

// RecordTestResults stores the outcome of a test pass alongside the status
// transition it implies.
func (s *Store) RecordTestResults(ctx context.Context, id string, status Status, summary, resultsJSON string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE proposals
		SET status = ?, test_output = ?, test_results = ?, updated_at = datetime('now')
		WHERE id = ?`,
		string(status), summary, resultsJSON, id)
	if err != nil {
		return fmt.Errorf("recording test results: %w", err)
	}
	return requireRow(res)
}

// ExpireOlderThan marks pending proposals created before the cutoff as
// expired. Returns the number of expired rows.
func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE proposals SET status = ?, updated_at = datetime('now')
		WHERE status = ? AND created_at < ?`,
		string(StatusExpired), string(StatusPending),
		cutoff.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("expiring proposals: %w", err)
	}
	return res.RowsAffected()
}

// GetStats returns aggregate proposal counts.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: make(map[Status]int),
		ByAgent:  make(map[AgentType]int),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, agent_type, COUNT(*) FROM proposals GROUP BY status, agent_type")
	if err != nil {
		return nil, fmt.Errorf("querying proposal stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, agent string
		var count int
		if err := rows.Scan(&status, &agent, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[Status(status)] += count
		stats.ByAgent[AgentType(agent)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.TestPassed = stats.ByStatus[StatusTestPassed]
	stats.TestFailed = stats.ByStatus[StatusTestFailed]
	return stats, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(sc scanner) (*Proposal, error) {
	var (
		p                             Proposal
		agent, status, recommendation string
		createdAt, updatedAt          string
		parent                        sql.NullString
	)

	err := sc.Scan(
		&p.ID, &agent, &p.FilePath, &p.CodeBefore, &p.CodeAfter,
		&p.ImprovementType, &p.Reasoning, &p.Confidence, &status,
		&p.CodeHash, &p.SemanticHash, &p.QualityScore, &p.ApprovalProbability,
		&recommendation, &p.TestOutput, &p.TestResults, &parent, &p.Generation,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AgentType = AgentType(agent)
	p.Status = Status(status)
	p.Recommendation = Recommendation(recommendation)
	if parent.Valid {
		p.ParentID = parent.String
	}
	p.CreatedAt = parseDBTime(createdAt)
	p.UpdatedAt = parseDBTime(updatedAt)

	return &p, nil
}

func parseDBTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
		return t
	}
	return time.Time{}
}
