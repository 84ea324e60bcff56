package tools

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lumina/agent-api/core"
)

// MemoryStore persists per-user memory snippets in SQLite and ranks them by
// keyword overlap with a query.
type MemoryStore struct {
	db *sql.DB
}

// OpenMemoryStore opens (and if needed initializes) the store at path.
// Use ":memory:" for an ephemeral store.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init memory store: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// Add stores one memory snippet for a user.
func (s *MemoryStore) Add(ctx context.Context, userID string, content string) error {
	if userID == "" {
		return fmt.Errorf("userID required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memories (user_id, content, created_at) VALUES (?, ?, ?)",
		userID, content, time.Now().UTC())
	return err
}

// MemoryHit is one ranked snippet from the store.
type MemoryHit struct {
	Content string `json:"content"`
	Score   int    `json:"score"`
}

// Search returns up to topK snippets for this user, ranked by how many query
// terms each contains. Rows belonging to other users are never read.
func (s *MemoryStore) Search(ctx context.Context, userID string, query string, topK int) ([]MemoryHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty query")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT content FROM memories WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("query memory store: %w", err)
	}
	defer rows.Close()

	var hits []MemoryHit
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		lower := strings.ToLower(content)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, MemoryHit{Content: content, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

type MemorySearchArgs struct {
	UserID string `json:"userId" validate:"required"`
	Query  string `json:"query" validate:"required"`
	TopK   int    `json:"topK" validate:"omitempty,min=1,max=20"`
}

// MemorySearchAdapter retrieves ranked memory snippets for one user. The
// user scope comes from the authenticated request, never from model output;
// the pipeline overwrites any userId the planner emitted before dispatch.
type MemorySearchAdapter struct {
	store *MemoryStore
}

func NewMemorySearchAdapter(store *MemoryStore) *MemorySearchAdapter {
	return &MemorySearchAdapter{store: store}
}

func (a *MemorySearchAdapter) Name() core.ToolName {
	return core.ToolMemorySearch
}

func (a *MemorySearchAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolMemorySearch,
		Description: "Search the user's long-term memory for relevant snippets. Use when the user refers to something they told the assistant before.",
		Parameters:  core.MustSchema(&MemorySearchArgs{}),
	}
}

func (a *MemorySearchAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in MemorySearchArgs
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.TopK == 0 {
		in.TopK = 5
	}

	hits, err := a.store.Search(ctx, in.UserID, in.Query, in.TopK)
	if err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no matching memories for query %q", in.Query)
	}

	return map[string]any{
		"query":    in.Query,
		"memories": hits,
	}, nil
}
