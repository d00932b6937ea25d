package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llmcouncil/llmcouncil/pkg/council"
)

// StoredMessage is one turn of a conversation. Assistant turns carry the full
// pipeline record so clients can re-render every stage.
type StoredMessage struct {
	Role         string                      `json:"role"`
	Content      string                      `json:"content"`
	Stage1       []council.ModelAnswer       `json:"stage1,omitempty"`
	Stage2       []council.RankingSubmission `json:"stage2,omitempty"`
	Stage3       *council.SynthesisResult    `json:"stage3,omitempty"`
	LabelToModel map[string]string           `json:"label_to_model,omitempty"`
	Aggregate    *council.AggregateRanking   `json:"aggregate_rankings,omitempty"`
}

// Conversation is a persisted chat session.
type Conversation struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Title      string          `json:"title"`
	Processing bool            `json:"processing"`
	Messages   []StoredMessage `json:"messages"`
}

// Summary is the listing view of a conversation, without its messages.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	Processing   bool      `json:"processing"`
	MessageCount int       `json:"message_count"`
}

// ConversationStore keeps one JSON file per conversation under a directory.
type ConversationStore struct {
	mu  sync.Mutex
	dir string
}

// NewConversationStore creates the backing directory if needed.
func NewConversationStore(dir string) (*ConversationStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create conversations dir: %w", err)
	}
	return &ConversationStore{dir: dir}, nil
}

func (s *ConversationStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create starts a new empty conversation.
func (s *ConversationStore) Create() (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     "New Conversation",
	}
	if err := writeJSON(s.path(conv.ID), conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get loads a conversation by id.
func (s *ConversationStore) Get(id string) (*Conversation, error) {
	if err := safeID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *ConversationStore) load(id string) (*Conversation, error) {
	var conv Conversation
	if err := readJSON(s.path(id), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Delete removes a conversation. Deleting an unknown id returns ErrNotFound.
func (s *ConversationStore) Delete(id string) error {
	if err := safeID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// List returns conversation summaries, newest first.
func (s *ConversationStore) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list conversations: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		conv, err := s.load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Skip unreadable files rather than failing the whole listing.
			continue
		}
		summaries = append(summaries, Summary{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			Title:        conv.Title,
			Processing:   conv.Processing,
			MessageCount: len(conv.Messages),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// AppendUserMessage records a user turn.
func (s *ConversationStore) AppendUserMessage(id, content string) error {
	return s.update(id, func(conv *Conversation) {
		conv.Messages = append(conv.Messages, StoredMessage{Role: "user", Content: content})
	})
}

// AppendAssistantMessage records an assistant turn carrying the full
// pipeline output.
func (s *ConversationStore) AppendAssistantMessage(id string, run *council.PipelineRun) error {
	return s.update(id, func(conv *Conversation) {
		aggregate := run.Aggregate
		stage3 := run.Stage3
		conv.Messages = append(conv.Messages, StoredMessage{
			Role:         "assistant",
			Content:      run.Stage3.Content,
			Stage1:       run.Stage1,
			Stage2:       run.Stage2,
			Stage3:       &stage3,
			LabelToModel: run.LabelToModel,
			Aggregate:    &aggregate,
		})
	})
}

// SetProcessing flips the in-flight marker clients use to disable input.
func (s *ConversationStore) SetProcessing(id string, processing bool) error {
	return s.update(id, func(conv *Conversation) {
		conv.Processing = processing
	})
}

// UpdateTitle replaces the conversation title.
func (s *ConversationStore) UpdateTitle(id, title string) error {
	return s.update(id, func(conv *Conversation) {
		conv.Title = title
	})
}

func (s *ConversationStore) update(id string, apply func(*Conversation)) error {
	if err := safeID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, err := s.load(id)
	if err != nil {
		return err
	}
	apply(conv)
	return writeJSON(s.path(id), conv)
}
