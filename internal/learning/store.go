package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codevanta/propgate/internal/db"
	"github.com/codevanta/propgate/internal/proposal"
)

// Store persists learning events.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a learning event. If e.ID is empty a UUID is generated.
func (s *Store) Record(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Topic == "" {
		e.Topic = TopicTestFailure
	}
	if e.Context == "" {
		e.Context = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_events (id, proposal_id, agent_type, topic, summary, context)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProposalID, string(e.AgentType), string(e.Topic), e.Summary, e.Context)
	if err != nil {
		return fmt.Errorf("inserting learning event: %w", err)
	}
	return nil
}

// ListByAgent returns the most recent events for an agent, newest first.
func (s *Store) ListByAgent(ctx context.Context, agent proposal.AgentType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, proposal_id, agent_type, topic, summary, context, created_at
		FROM learning_events WHERE agent_type = ?
		ORDER BY created_at DESC, id LIMIT ?`,
		string(agent), limit)
	if err != nil {
		return nil, fmt.Errorf("querying learning events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var agentType, topic, createdAt string
		if err := rows.Scan(&e.ID, &e.ProposalID, &agentType, &topic, &e.Summary, &e.Context, &createdAt); err != nil {
			return nil, err
		}
		e.AgentType = proposal.AgentType(agentType)
		e.Topic = Topic(topic)
		e.CreatedAt = parseDBTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByTopic returns how many events each topic has accumulated.
func (s *Store) CountByTopic(ctx context.Context) (map[Topic]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT topic, COUNT(*) FROM learning_events GROUP BY topic")
	if err != nil {
		return nil, fmt.Errorf("counting learning events: %w", err)
	}
	defer rows.Close()

	counts := make(map[Topic]int)
	for rows.Next() {
		var topic string
		var n int
		if err := rows.Scan(&topic, &n); err != nil {
			return nil, err
		}
		counts[Topic(topic)] = n
	}
	return counts, rows.Err()
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
