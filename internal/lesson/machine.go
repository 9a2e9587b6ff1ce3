package lesson

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
)

// Store persists profiles and daily lesson records, keyed by the
// Telegram user id. Absent records are (nil, nil), never an error.
type Store interface {
	Profile(ctx context.Context, userID int64) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
	State(ctx context.Context, userID int64) (*State, error)
	SaveState(ctx context.Context, userID int64, st *State) error
	DeleteState(ctx context.Context, userID int64) error
	ActiveProfiles(ctx context.Context) ([]Profile, error)
}

// TopicCache shares one day's fetched candidate topics across users.
type TopicCache interface {
	Topics(ctx context.Context, date string) ([]Article, error)
	SetTopics(ctx context.Context, date string, topics []Article) error
}

// TopicSource searches for candidate articles. Best-effort: an empty
// result is a valid answer, not a failure.
type TopicSource interface {
	Search(ctx context.Context, query string, max int) ([]Article, error)
}

// Generator is the content backend: adaptation, questions, vocabulary,
// speech synthesis, transcription and evaluation. Stateless; any call
// may fail and malformed structured output counts as a failure.
type Generator interface {
	AdaptArticle(ctx context.Context, a Article) (string, error)
	ListeningText(ctx context.Context, a Article) (string, error)
	SpeakingPrompt(ctx context.Context, a Article) (string, error)
	GenerateQuestions(ctx context.Context, text string, count int) ([]Question, error)
	ExtractVocabulary(ctx context.Context, text string) ([]VocabWord, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
	EvaluateResponse(ctx context.Context, prompt, transcript string) (Evaluation, error)
}

const (
	defaultMaxTopics = 5

	readingQuestions   = 3
	listeningQuestions = 2
)

// Machine owns the lesson state transitions. Every operation re-reads
// the persisted record, validates the event against it, and writes the
// full updated record back before returning a rendering instruction.
type Machine struct {
	store     Store
	cache     TopicCache
	source    TopicSource
	gen       Generator
	catalog   []TopicQuery
	maxTopics int
	now       func() time.Time
}

// Option customises machine construction.
type Option func(*Machine)

// WithClock overrides the wall clock, used by tests to pin the day.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithMaxTopics caps how many candidate topics are offered.
func WithMaxTopics(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxTopics = n
		}
	}
}

// NewMachine wires the lesson state machine with its capabilities.
func NewMachine(store Store, cache TopicCache, source TopicSource, gen Generator, catalog []TopicQuery, opts ...Option) *Machine {
	m := &Machine{
		store:     store,
		cache:     cache,
		source:    source,
		gen:       gen,
		catalog:   catalog,
		maxTopics: defaultMaxTopics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) today() string { return DateOf(m.now()) }

// current returns today's record, or nil when absent or stale.
func (m *Machine) current(ctx context.Context, userID int64) (*State, error) {
	st, err := m.store.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if st == nil || st.Date != m.today() {
		return nil, nil
	}
	return st, nil
}

func (m *Machine) requireProfile(ctx context.Context, userID int64) (*Profile, error) {
	p, err := m.store.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, ErrNotRegistered
	}
	return p, nil
}

// RegisterUser creates the profile on first contact. Returns the
// profile and whether it was newly created; an existing profile is
// returned unchanged (registration is immutable thereafter).
func (m *Machine) RegisterUser(ctx context.Context, userID int64, firstName string) (*Profile, bool, *View, error) {
	existing, err := m.store.Profile(ctx, userID)
	if err != nil {
		return nil, false, nil, fmt.Errorf("load profile: %w", err)
	}
	if existing != nil {
		return existing, false, welcomeBackView(existing.FirstName), nil
	}
	if firstName == "" {
		firstName = "User"
	}
	topics := make([]string, 0, len(m.catalog))
	labels := make([]string, 0, len(m.catalog))
	for _, t := range m.catalog {
		topics = append(topics, t.ID)
		labels = append(labels, t.Label)
	}
	p := &Profile{
		TelegramID: userID,
		FirstName:  firstName,
		Topics:     topics,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.store.SaveProfile(ctx, p); err != nil {
		return nil, false, nil, fmt.Errorf("save profile: %w", err)
	}
	logger.SVCLesson.Info("user registered",
		slog.String("event", "lesson.register"),
		slog.Int64("user_id", userID),
	)
	return p, true, welcomeView(firstName, labels), nil
}

// StartLesson begins today's lesson or resumes it. Repeated calls with
// no intervening events are idempotent: the exact current view is
// reconstructed from the persisted record, with zero generation calls
// unless an earlier generation failure left a stage without a payload.
func (m *Machine) StartLesson(ctx context.Context, userID int64) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}

	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	// A completed record does not block a fresh lesson: the day starts
	// over from topic selection.
	if st != nil && st.Stage != StageDone {
		return m.resume(ctx, userID, st)
	}

	topics, err := m.dailyTopics(ctx)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return GuidanceView(ErrNoTopics), ErrNoTopics
	}
	st = &State{
		Date:            m.today(),
		Stage:           StageSelectingTopic,
		AvailableTopics: topics,
		CollectedWords:  []VocabWord{},
	}
	if err := m.store.SaveState(ctx, userID, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	logger.SVCLesson.Info("lesson started",
		slog.String("event", "lesson.start"),
		slog.Int64("user_id", userID),
		slog.Int("topics", len(topics)),
	)
	return topicSelectionView(st.AvailableTopics), nil
}

// resume rebuilds the view for the current stage from the record
// alone. The only side effects allowed are re-initializing a missing
// progress entry and retrying a previously failed generation.
func (m *Machine) resume(ctx context.Context, userID int64, st *State) (*View, error) {
	if st.Stage == StageSelectingTopic {
		return topicSelectionView(st.AvailableTopics), nil
	}

	n := st.Stage.TaskNumber()
	hadProgress := st.Progress != nil && st.Progress[n] != nil
	p := st.ProgressFor(n)
	if !hadProgress {
		if err := m.store.SaveState(ctx, userID, st); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
	}

	task := st.Task(n)
	if task == nil {
		// Stage entered but generation failed earlier: retry now.
		view, err := m.generateInto(ctx, userID, st, n)
		if err != nil {
			return view, err
		}
		return view, nil
	}

	if Stage(n) != StageSpeaking && p.CurrentQuestion > 0 {
		return (&View{}).add(questionMessage(n, task, p.CurrentQuestion)), nil
	}
	return stageIntroView(n, task, p, nil), nil
}

// SelectTopic pins the day's topic and opens task 1. Only valid while
// the selection is open; duplicate taps observe the advanced stage and
// are rejected as stale.
func (m *Machine) SelectTopic(ctx context.Context, userID int64, topicIndex int) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Stage != StageSelectingTopic {
		return GuidanceView(ErrStaleSelection), ErrStaleSelection
	}
	if topicIndex < 0 || topicIndex >= len(st.AvailableTopics) {
		return GuidanceView(ErrInvalidSelection), ErrInvalidSelection
	}

	idx := topicIndex
	st.SelectedTopic = &idx
	return m.enterStage(ctx, userID, st, 1, nil)
}

// enterStage advances the record into task n, persists the advance
// before generating content, and then attempts generation. A failure
// leaves the stage advanced with an absent payload, which resume
// detects and retries.
func (m *Machine) enterStage(ctx context.Context, userID int64, st *State, n int, prefix *View) (*View, error) {
	st.Stage = Stage(n)
	st.Progress = nil
	_ = st.ProgressFor(n)
	if err := m.store.SaveState(ctx, userID, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	view, err := m.generateInto(ctx, userID, st, n)
	if err != nil {
		return joinViews(prefix, view), err
	}
	return joinViews(prefix, view), nil
}

// generateInto builds the payload for task n, stores it, and renders
// the stage entry view.
func (m *Machine) generateInto(ctx context.Context, userID int64, st *State, n int) (*View, error) {
	article := st.SelectedArticle()
	if article == nil {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}

	start := m.now()
	task, audio, err := m.generateTask(ctx, *article, n)
	if err != nil {
		genErr := &GenerationError{Stage: Stage(n), Err: err}
		logger.SVCLesson.Error("task generation failed",
			slog.String("event", "lesson.generate"),
			slog.Int64("user_id", userID),
			slog.String("stage", Stage(n).String()),
			slog.String("err", err.Error()),
		)
		return GuidanceView(genErr), genErr
	}
	if st.Tasks == nil {
		st.Tasks = make(map[int]*Task, TaskCount)
	}
	st.Tasks[n] = task
	if err := m.store.SaveState(ctx, userID, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	logger.SVCLesson.Info("task generated",
		slog.String("event", "lesson.generate"),
		slog.Int64("user_id", userID),
		slog.String("stage", Stage(n).String()),
		slog.Int("words", len(task.Words)),
		slog.Duration("duration", logger.RoundMS(m.now().Sub(start))),
	)
	return stageIntroView(n, task, st.ProgressFor(n), audio), nil
}

func (m *Machine) generateTask(ctx context.Context, article Article, n int) (*Task, []byte, error) {
	switch Stage(n) {
	case StageReading:
		content, err := m.gen.AdaptArticle(ctx, article)
		if err != nil {
			return nil, nil, err
		}
		questions, err := m.gen.GenerateQuestions(ctx, content, readingQuestions)
		if err != nil {
			return nil, nil, err
		}
		words, err := m.gen.ExtractVocabulary(ctx, content)
		if err != nil {
			return nil, nil, err
		}
		return &Task{
			Title:     article.Title,
			SourceURL: article.URL,
			Content:   content,
			Questions: questions,
			Words:     words,
		}, nil, nil

	case StageListening:
		transcript, err := m.gen.ListeningText(ctx, article)
		if err != nil {
			return nil, nil, err
		}
		questions, err := m.gen.GenerateQuestions(ctx, transcript, listeningQuestions)
		if err != nil {
			return nil, nil, err
		}
		words, err := m.gen.ExtractVocabulary(ctx, transcript)
		if err != nil {
			return nil, nil, err
		}
		audio, err := m.gen.SynthesizeSpeech(ctx, transcript)
		if err != nil {
			return nil, nil, err
		}
		return &Task{
			Content:   transcript,
			Questions: questions,
			Words:     words,
		}, audio, nil

	case StageSpeaking:
		prompt, err := m.gen.SpeakingPrompt(ctx, article)
		if err != nil {
			return nil, nil, err
		}
		words, err := m.gen.ExtractVocabulary(ctx, prompt)
		if err != nil {
			return nil, nil, err
		}
		return &Task{Content: prompt, Words: words}, nil, nil
	}
	return nil, nil, fmt.Errorf("no generator for stage %d", n)
}

// SubmitTaskAnswer records a multiple-choice answer for tasks 1 and 2.
// Re-submission of an already answered question overwrites the stored
// answer without moving the cursor, so a retransmitted duplicate tap
// cannot corrupt state.
func (m *Machine) SubmitTaskAnswer(ctx context.Context, userID int64, taskNumber, questionIndex int, choice string) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || !st.Stage.InTask() || st.Stage.TaskNumber() != taskNumber {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}
	task := st.Task(taskNumber)
	if task == nil || len(task.Questions) == 0 {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}
	if questionIndex < 0 || questionIndex >= len(task.Questions) {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}
	choice = strings.ToUpper(strings.TrimSpace(choice))
	if !validChoice(choice, len(task.Questions[questionIndex].Options)) {
		return GuidanceView(ErrInvalidSelection), ErrInvalidSelection
	}

	p := st.ProgressFor(taskNumber)
	if questionIndex > p.CurrentQuestion {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}
	if p.Answers == nil {
		p.Answers = make(map[int]string, len(task.Questions))
	}
	p.Answers[questionIndex] = choice
	p.Correct = countCorrect(task.Questions, p.Answers)

	q := task.Questions[questionIndex]
	feedback := answerFeedback(choice == q.Correct, q.Correct)

	if questionIndex < p.CurrentQuestion {
		// Duplicate of an already answered question: store the
		// overwrite, re-render the question the user is actually on.
		if err := m.store.SaveState(ctx, userID, st); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
		v := textView(feedback)
		return v.add(questionMessage(taskNumber, task, p.CurrentQuestion)), nil
	}

	last := questionIndex == len(task.Questions)-1
	if !last {
		p.CurrentQuestion++
		if err := m.store.SaveState(ctx, userID, st); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
		v := textView(feedback)
		return v.add(questionMessage(taskNumber, task, p.CurrentQuestion)), nil
	}

	// Stage finished: fold vocabulary, report the score, advance.
	st.CollectedWords = append(st.CollectedWords, task.Words...)
	score := textView(feedback, stageScoreText(taskNumber, p.Correct, len(task.Questions)))
	logger.SVCLesson.Info("task completed",
		slog.String("event", "lesson.task_done"),
		slog.Int64("user_id", userID),
		slog.String("stage", st.Stage.String()),
		slog.String("score", fmt.Sprintf("%d/%d", p.Correct, len(task.Questions))),
	)
	return m.enterStage(ctx, userID, st, taskNumber+1, score)
}

// SubmitSpeakingResponse accepts the voice answer for task 3,
// transcribes and evaluates it, and completes the lesson. An empty
// transcript keeps the stage awaiting so the user can try again.
func (m *Machine) SubmitSpeakingResponse(ctx context.Context, userID int64, audio []byte) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Stage != StageSpeaking {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}
	task := st.Task(int(StageSpeaking))
	if task == nil || !st.ProgressFor(int(StageSpeaking)).AwaitingResponse {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}

	transcript, err := m.gen.Transcribe(ctx, audio)
	if err != nil {
		genErr := &GenerationError{Stage: StageSpeaking, Err: err}
		return GuidanceView(genErr), genErr
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return GuidanceView(ErrTranscriptionEmpty), ErrTranscriptionEmpty
	}

	eval, err := m.gen.EvaluateResponse(ctx, task.Content, transcript)
	if err != nil {
		genErr := &GenerationError{Stage: StageSpeaking, Err: err}
		return GuidanceView(genErr), genErr
	}

	st.Speaking = &SpeakingResult{Transcript: transcript, Evaluation: eval}
	st.CollectedWords = append(st.CollectedWords, task.Words...)
	st.Stage = StageDone
	now := m.now().UTC()
	st.CompletedAt = &now
	delete(st.Progress, int(StageSpeaking))
	if err := m.store.SaveState(ctx, userID, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	logger.SVCLesson.Info("lesson completed",
		slog.String("event", "lesson.done"),
		slog.Int64("user_id", userID),
		slog.Int("words", len(st.CollectedWords)),
		slog.String("score", eval.Score),
	)
	return evaluationView(st.Speaking, st.CollectedWords), nil
}

// SkipStage forcibly advances past the current task without recording
// an answer, discarding that stage's sub-progress. The escape hatch
// for broken content or an impatient user.
func (m *Machine) SkipStage(ctx context.Context, userID int64) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || !st.Stage.InTask() {
		return GuidanceView(ErrStaleAction), ErrStaleAction
	}

	n := st.Stage.TaskNumber()
	skipped := textView(fmt.Sprintf("⏭ Skipped task %d (%s).", n, st.Stage.Title()))
	logger.SVCLesson.Info("stage skipped",
		slog.String("event", "lesson.skip"),
		slog.Int64("user_id", userID),
		slog.String("stage", st.Stage.String()),
	)
	if n < TaskCount {
		return m.enterStage(ctx, userID, st, n+1, skipped)
	}

	delete(st.Progress, n)
	st.Stage = StageDone
	now := m.now().UTC()
	st.CompletedAt = &now
	if err := m.store.SaveState(ctx, userID, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	skipped.add(Message{Text: "🎉 *All done for today!*\n\nSee you tomorrow! Tot morgen! 🇳🇱"})
	if vocab := formatVocabList(st.CollectedWords); vocab != "" {
		skipped.add(Message{Text: vocab})
	}
	return skipped, nil
}

// ResetLesson deletes today's record wholesale. The next StartLesson
// builds fresh state, refetching topics if the daily cache expired.
func (m *Machine) ResetLesson(ctx context.Context, userID int64) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	if err := m.store.DeleteState(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete state: %w", err)
	}
	logger.SVCLesson.Info("lesson reset",
		slog.String("event", "lesson.reset"),
		slog.Int64("user_id", userID),
	)
	return textView("🔄 Today's exercises have been reset.\n\nUse /lesson to start fresh."), nil
}

// StatusSummary renders current progress without mutating anything and
// without any generation or network calls.
func (m *Machine) StatusSummary(ctx context.Context, userID int64) (*View, error) {
	if _, err := m.requireProfile(ctx, userID); err != nil {
		return GuidanceView(err), err
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return textView("📊 Status: No exercises yet today.\n\nUse /lesson to start today's lesson."), nil
	}
	if st.Stage == StageDone {
		return textView("✅ All done for today!\n\nYou completed today's exercises.\nSee you tomorrow! Tot morgen! 🇳🇱"), nil
	}
	return textView(statusChecklist(st)), nil
}

// Broadcast categories reported by the daily push.
const (
	BroadcastNew        = "new"
	BroadcastInProgress = "in_progress"
	BroadcastCompleted  = "completed"
)

// BroadcastMessage picks the daily-push message for one user from the
// persisted record alone. Stale records count as "no lesson today".
func (m *Machine) BroadcastMessage(ctx context.Context, userID int64) (category string, text string, err error) {
	st, err := m.current(ctx, userID)
	if err != nil {
		return "", "", err
	}
	switch {
	case st == nil:
		idx := m.now().Day() % len(morningMessages)
		return BroadcastNew, morningMessages[idx], nil
	case st.Stage == StageDone:
		return BroadcastCompleted, "🎉 You already finished today's lesson. Lekker bezig! See you tomorrow! 🇳🇱", nil
	default:
		return BroadcastInProgress, "⏳ Your lesson for today is still in progress.\n\nUse /lesson to pick up where you left off!", nil
	}
}

// ActiveProfiles lists every registered user, for the daily push.
func (m *Machine) ActiveProfiles(ctx context.Context) ([]Profile, error) {
	return m.store.ActiveProfiles(ctx)
}

// RecordAudioRef stores the transport file id of the listening clip
// after its first upload, so resumed sessions re-send identical audio
// without another synthesis call. A second upload never overwrites.
func (m *Machine) RecordAudioRef(ctx context.Context, userID int64, fileID string) error {
	if fileID == "" {
		return nil
	}
	st, err := m.current(ctx, userID)
	if err != nil {
		return err
	}
	task := st.Task(int(StageListening))
	if task == nil || task.AudioFileID != "" {
		return nil
	}
	task.AudioFileID = fileID
	return m.store.SaveState(ctx, userID, st)
}

// dailyTopics returns today's shared candidate list, fetching and
// caching it on the first lesson start of the day.
func (m *Machine) dailyTopics(ctx context.Context) ([]Article, error) {
	date := m.today()
	cached, err := m.cache.Topics(ctx, date)
	if err != nil {
		logger.SVCLesson.Warn("topic cache read failed",
			slog.String("event", "lesson.topics"),
			slog.String("cache", "miss"),
			slog.String("err", err.Error()),
		)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	perQuery := 3
	var topics []Article
	for _, tq := range m.catalog {
		if len(topics) >= m.maxTopics {
			break
		}
		found, err := m.source.Search(ctx, tq.Query, perQuery)
		if err != nil {
			logger.SVCNews.Warn("topic search failed",
				slog.String("event", "news.search"),
				slog.String("err", err.Error()),
			)
			continue
		}
		for _, a := range found {
			if len(topics) >= m.maxTopics {
				break
			}
			topics = append(topics, a)
		}
	}
	if len(topics) == 0 {
		return nil, nil
	}
	if err := m.cache.SetTopics(ctx, date, topics); err != nil {
		logger.SVCLesson.Warn("topic cache write failed",
			slog.String("event", "lesson.topics"),
			slog.String("err", err.Error()),
		)
	}
	logger.SVCLesson.Info("daily topics fetched",
		slog.String("event", "lesson.topics"),
		slog.String("cache", "refresh"),
		slog.Int("topics", len(topics)),
	)
	return topics, nil
}

func validChoice(choice string, options int) bool {
	for i, letter := range answerLetters {
		if i >= options {
			break
		}
		if choice == letter {
			return true
		}
	}
	return false
}

func countCorrect(questions []Question, answers map[int]string) int {
	n := 0
	for i, q := range questions {
		if answers[i] == q.Correct {
			n++
		}
	}
	return n
}

func joinViews(prefix, v *View) *View {
	if prefix == nil || len(prefix.Messages) == 0 {
		return v
	}
	if v == nil {
		return prefix
	}
	out := &View{Messages: make([]Message, 0, len(prefix.Messages)+len(v.Messages))}
	out.Messages = append(out.Messages, prefix.Messages...)
	out.Messages = append(out.Messages, v.Messages...)
	return out
}
