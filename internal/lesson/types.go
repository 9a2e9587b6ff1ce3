package lesson

import (
	"strconv"
	"time"
)

// Article is a candidate topic document offered for selection.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// VocabWord is a single vocabulary pair collected during the lesson.
type VocabWord struct {
	Dutch   string `json:"dutch"`
	English string `json:"english"`
}

// Question is a multiple-choice comprehension question. Correct holds
// the answer key letter ("A", "B" or "C").
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
}

// Task is the generated exercise payload for one stage, cached for the
// day. Content carries the adapted article text (reading), the audio
// transcript (listening) or the speaking prompt (speaking).
type Task struct {
	Title       string      `json:"title,omitempty"`
	SourceURL   string      `json:"source_url,omitempty"`
	Content     string      `json:"content"`
	AudioFileID string      `json:"audio_file_id,omitempty"`
	Questions   []Question  `json:"questions,omitempty"`
	Words       []VocabWord `json:"words,omitempty"`
}

// Progress is the within-stage cursor that makes mid-task resumption
// possible. Its zero value means "stage entered, nothing answered yet".
type Progress struct {
	CurrentQuestion  int            `json:"current_question"`
	Answers          map[int]string `json:"answers,omitempty"`
	Correct          int            `json:"correct"`
	AwaitingResponse bool           `json:"awaiting_response,omitempty"`
}

// Evaluation is the generated feedback for a spoken response.
type Evaluation struct {
	Feedback  string `json:"feedback"`
	Corrected string `json:"corrected"`
	Score     string `json:"score"`
}

// SpeakingResult records the accepted spoken answer and its evaluation.
type SpeakingResult struct {
	Transcript string     `json:"transcript"`
	Evaluation Evaluation `json:"evaluation"`
}

// State is the per-user daily lesson record. It is the single source of
// truth for lesson progress: every operation re-reads it from storage,
// validates the incoming event against it, and writes the whole record
// back. A record whose Date is not today is stale and ignored by reads.
type State struct {
	Date            string            `json:"date"`
	Stage           Stage             `json:"stage"`
	AvailableTopics []Article         `json:"available_topics,omitempty"`
	SelectedTopic   *int              `json:"selected_topic_index,omitempty"`
	Tasks           map[int]*Task     `json:"tasks,omitempty"`
	Progress        map[int]*Progress `json:"task_progress,omitempty"`
	CollectedWords  []VocabWord       `json:"collected_words"`
	Speaking        *SpeakingResult   `json:"speaking_result,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// Task returns the cached payload for task n, or nil.
func (s *State) Task(n int) *Task {
	if s == nil || s.Tasks == nil {
		return nil
	}
	return s.Tasks[n]
}

// ProgressFor returns the sub-progress for task n, initializing it to
// the zero value when missing. A missing entry on an in-progress stage
// is schema drift from an older record shape, not corruption.
func (s *State) ProgressFor(n int) *Progress {
	if s.Progress == nil {
		s.Progress = make(map[int]*Progress, TaskCount)
	}
	p, ok := s.Progress[n]
	if !ok || p == nil {
		p = &Progress{}
		if n == int(StageSpeaking) {
			p.AwaitingResponse = true
		}
		s.Progress[n] = p
	}
	return p
}

// SelectedArticle returns the topic document the user picked, or nil
// before selection.
func (s *State) SelectedArticle() *Article {
	if s == nil || s.SelectedTopic == nil {
		return nil
	}
	idx := *s.SelectedTopic
	if idx < 0 || idx >= len(s.AvailableTopics) {
		return nil
	}
	return &s.AvailableTopics[idx]
}

// Profile is the identity record created on first contact.
type Profile struct {
	TelegramID int64     `json:"telegram_id"`
	FirstName  string    `json:"first_name"`
	Topics     []string  `json:"topics"`
	CreatedAt  time.Time `json:"created_at"`
}

// TopicQuery is one entry of the configured topic catalog.
type TopicQuery struct {
	ID    string
	Query string
	Label string
}

// DateOf formats t as the calendar-day key used across the state record
// and the topics cache.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func itoa(n int) string { return strconv.Itoa(n) }
