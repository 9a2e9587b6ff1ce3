package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps records as JSON blobs so every read goes through a
// full serialization round trip, the same way the real store does.
type fakeStore struct {
	profiles map[int64]*Profile
	states   map[int64][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[int64]*Profile),
		states:   make(map[int64][]byte),
	}
}

func (s *fakeStore) Profile(_ context.Context, id int64) (*Profile, error) {
	return s.profiles[id], nil
}

func (s *fakeStore) SaveProfile(_ context.Context, p *Profile) error {
	s.profiles[p.TelegramID] = p
	return nil
}

func (s *fakeStore) State(_ context.Context, id int64) (*State, error) {
	raw, ok := s.states[id]
	if !ok {
		return nil, nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *fakeStore) SaveState(_ context.Context, id int64, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.states[id] = raw
	return nil
}

func (s *fakeStore) DeleteState(_ context.Context, id int64) error {
	delete(s.states, id)
	return nil
}

func (s *fakeStore) ActiveProfiles(_ context.Context) ([]Profile, error) {
	var out []Profile
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	return out, nil
}

type fakeCache struct {
	topics map[string][]Article
}

func newFakeCache() *fakeCache {
	return &fakeCache{topics: make(map[string][]Article)}
}

func (c *fakeCache) Topics(_ context.Context, date string) ([]Article, error) {
	return c.topics[date], nil
}

func (c *fakeCache) SetTopics(_ context.Context, date string, topics []Article) error {
	c.topics[date] = topics
	return nil
}

type fakeSource struct {
	articles []Article
	searches int
}

func (s *fakeSource) Search(_ context.Context, _ string, max int) ([]Article, error) {
	s.searches++
	if len(s.articles) > max {
		return s.articles[:max], nil
	}
	return s.articles, nil
}

// fakeGen produces deterministic content and counts every call, so
// tests can assert that resumption never regenerates anything.
type fakeGen struct {
	calls map[string]int
	fail  map[string]error

	transcript   string
	extraOptions int
}

func newFakeGen() *fakeGen {
	return &fakeGen{
		calls:      make(map[string]int),
		fail:       make(map[string]error),
		transcript: "Ik vind het artikel interessant.",
	}
}

func (g *fakeGen) hit(name string) error {
	g.calls[name]++
	return g.fail[name]
}

func (g *fakeGen) total() int {
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGen) AdaptArticle(_ context.Context, a Article) (string, error) {
	if err := g.hit("adapt"); err != nil {
		return "", err
	}
	return "Adapted: " + a.Title, nil
}

func (g *fakeGen) ListeningText(_ context.Context, a Article) (string, error) {
	if err := g.hit("listening"); err != nil {
		return "", err
	}
	return "Transcript over " + a.Title, nil
}

func (g *fakeGen) SpeakingPrompt(_ context.Context, a Article) (string, error) {
	if err := g.hit("prompt"); err != nil {
		return "", err
	}
	return "Wat vind je van " + a.Title + "?", nil
}

func (g *fakeGen) GenerateQuestions(_ context.Context, _ string, count int) ([]Question, error) {
	if err := g.hit("questions"); err != nil {
		return nil, err
	}
	qs := make([]Question, count)
	for i := range qs {
		opts := []string{"optie een", "optie twee", "optie drie"}
		for j := 0; j < g.extraOptions; j++ {
			opts = append(opts, fmt.Sprintf("optie extra %d", j+1))
		}
		qs[i] = Question{
			Question: fmt.Sprintf("Vraag %d?", i+1),
			Options:  opts,
			Correct:  "A",
		}
	}
	return qs, nil
}

func (g *fakeGen) ExtractVocabulary(_ context.Context, text string) ([]VocabWord, error) {
	if err := g.hit("vocab"); err != nil {
		return nil, err
	}
	return []VocabWord{{Dutch: "woord-" + text[:1], English: "word"}}, nil
}

func (g *fakeGen) SynthesizeSpeech(_ context.Context, _ string) ([]byte, error) {
	if err := g.hit("tts"); err != nil {
		return nil, err
	}
	return []byte("OggS-fake-audio"), nil
}

func (g *fakeGen) Transcribe(_ context.Context, _ []byte) (string, error) {
	if err := g.hit("stt"); err != nil {
		return "", err
	}
	return g.transcript, nil
}

func (g *fakeGen) EvaluateResponse(_ context.Context, _, _ string) (Evaluation, error) {
	if err := g.hit("eval"); err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Feedback: "Goed gedaan!", Corrected: "Ik vind dit artikel interessant.", Score: "good"}, nil
}

type fixture struct {
	m      *Machine
	store  *fakeStore
	cache  *fakeCache
	source *fakeSource
	gen    *fakeGen
	now    time.Time
}

var testCatalog = []TopicQuery{
	{ID: "netherlands", Query: "Nederland", Label: "🇳🇱 Netherlands"},
	{ID: "technology", Query: "technologie", Label: "💻 Technology"},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newFakeStore(),
		cache:  newFakeCache(),
		source: &fakeSource{articles: []Article{
			{Title: "Fietsen in Amsterdam", URL: "https://example.nl/a", Source: "NOS"},
			{Title: "Nieuwe technologie", URL: "https://example.nl/b", Source: "NU.nl"},
			{Title: "Het weer morgen", URL: "https://example.nl/c", Source: "RTL"},
		}},
		gen: newFakeGen(),
		now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	f.m = NewMachine(f.store, f.cache, f.source, f.gen, testCatalog,
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) register(t *testing.T, id int64) {
	t.Helper()
	_, created, _, err := f.m.RegisterUser(context.Background(), id, "Anna")
	require.NoError(t, err)
	require.True(t, created)
}

// startSelected drives a registered user to the start of task 1.
func (f *fixture) startSelected(t *testing.T, id int64) {
	t.Helper()
	_, err := f.m.StartLesson(context.Background(), id)
	require.NoError(t, err)
	_, err = f.m.SelectTopic(context.Background(), id, 0)
	require.NoError(t, err)
}

func (f *fixture) state(t *testing.T, id int64) *State {
	t.Helper()
	st, err := f.store.State(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st
}

func viewText(v *View) string {
	var b strings.Builder
	for _, m := range v.Messages {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, created, v, err := f.m.RegisterUser(ctx, 7, "Anna")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, []string{"netherlands", "technology"}, p.Topics)
	assert.Contains(t, viewText(v), "Hello, Anna!")

	// Second contact is a no-op on the profile.
	p2, created, v, err := f.m.RegisterUser(ctx, 7, "Someone Else")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Anna", p2.FirstName)
	assert.Contains(t, viewText(v), "Welcome back")
}

func TestStartLessonRequiresRegistration(t *testing.T) {
	f := newFixture(t)
	v, err := f.m.StartLesson(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.Contains(t, viewText(v), "/start")
}

func TestStartLessonOffersSharedDailyTopics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.register(t, 2)

	v, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Pick a topic")
	firstSearches := f.source.searches
	require.Greater(t, firstSearches, 0)

	// Second user the same day reads from the cache, no new searches.
	_, err = f.m.StartLesson(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, firstSearches, f.source.searches)

	st := f.state(t, 1)
	assert.Equal(t, StageSelectingTopic, st.Stage)
	assert.LessOrEqual(t, len(st.AvailableTopics), defaultMaxTopics)
}

func TestStartLessonNoTopics(t *testing.T) {
	f := newFixture(t)
	f.source.articles = nil
	f.register(t, 1)

	v, err := f.m.StartLesson(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoTopics)
	assert.Contains(t, viewText(v), "try /lesson again")
}

func TestStartLessonIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	before := f.gen.total()
	v1, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	v2, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)

	// Resumption is a pure re-render: no generation, identical output.
	assert.Equal(t, before, f.gen.total())
	assert.Equal(t, viewText(v1), viewText(v2))
	assert.Contains(t, viewText(v1), "Task 1: Reading")
}

func TestFullLessonFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	_, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	v, err := f.m.SelectTopic(ctx, 1, 0)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Adapted: Fietsen in Amsterdam")
	assert.Contains(t, viewText(v), "Question 1/3")

	// Task 1: three questions, first one wrong.
	v, err = f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "B")
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Not quite")
	_, err = f.m.SubmitTaskAnswer(ctx, 1, 1, 1, "A")
	require.NoError(t, err)
	v, err = f.m.SubmitTaskAnswer(ctx, 1, 1, 2, "A")
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Score: 2/3")
	assert.Contains(t, viewText(v), "Task 2: Listening")
	require.NotEmpty(t, v.Messages)
	var hasVoice bool
	for _, msg := range v.Messages {
		if len(msg.Voice) > 0 {
			hasVoice = true
		}
	}
	assert.True(t, hasVoice, "listening entry must carry synthesized audio")

	// Task 2: two questions.
	_, err = f.m.SubmitTaskAnswer(ctx, 2, 2, 0, "A")
	require.NoError(t, err)
	v, err = f.m.SubmitTaskAnswer(ctx, 2, 2, 1, "A")
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Score: 2/2")
	assert.Contains(t, viewText(v), "Task 3: Speaking")

	// Task 3: voice answer completes the day.
	v, err = f.m.SubmitSpeakingResponse(ctx, 1, []byte("oga-bytes"))
	require.NoError(t, err)
	out := viewText(v)
	assert.Contains(t, out, "Goed gedaan!")
	assert.Contains(t, out, "All done for today")
	assert.Contains(t, out, "Today's words")

	st := f.state(t, 1)
	assert.Equal(t, StageDone, st.Stage)
	require.NotNil(t, st.CompletedAt)
	require.NotNil(t, st.Speaking)
	assert.Equal(t, f.gen.transcript, st.Speaking.Transcript)
	// One vocab batch per task folded into the day's list.
	assert.Len(t, st.CollectedWords, 3)
}

func TestDuplicateAnswerDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	_, err := f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "A")
	require.NoError(t, err)

	// Same question again with a different choice: answer overwritten,
	// score recomputed, cursor stays on question 2.
	v, err := f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "B")
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Question 2/3")

	st := f.state(t, 1)
	p := st.Progress[1]
	require.NotNil(t, p)
	assert.Equal(t, 1, p.CurrentQuestion)
	assert.Equal(t, "B", p.Answers[0])
	assert.Equal(t, 0, p.Correct)
}

func TestAnswerAheadOfCursorRejected(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1)
	f.startSelected(t, 1)

	_, err := f.m.SubmitTaskAnswer(context.Background(), 1, 1, 2, "A")
	require.ErrorIs(t, err, ErrStaleAction)
}

func TestStaleTopicSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	// Selection already closed: a late duplicate tap is rejected and
	// the record is untouched.
	_, err := f.m.SelectTopic(ctx, 1, 1)
	require.ErrorIs(t, err, ErrStaleSelection)

	st := f.state(t, 1)
	assert.Equal(t, StageReading, st.Stage)
	assert.Equal(t, 0, *st.SelectedTopic)
}

func TestInvalidTopicIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	_, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)

	_, err = f.m.SelectTopic(ctx, 1, 42)
	require.ErrorIs(t, err, ErrInvalidSelection)
	st := f.state(t, 1)
	assert.Equal(t, StageSelectingTopic, st.Stage)
}

func TestAnswerForWrongStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	// A task 2 button while still on task 1.
	_, err := f.m.SubmitTaskAnswer(ctx, 1, 2, 0, "A")
	require.ErrorIs(t, err, ErrStaleAction)

	// A voice message while still on task 1.
	_, err = f.m.SubmitSpeakingResponse(ctx, 1, []byte("x"))
	require.ErrorIs(t, err, ErrStaleAction)
}

func TestGenerationFailureLeavesResumableState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	_, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)

	f.gen.fail["adapt"] = errors.New("upstream 500")
	v, err := f.m.SelectTopic(ctx, 1, 0)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageReading, genErr.Stage)
	assert.Contains(t, viewText(v), "Something went wrong")

	// The advance was persisted before generation: stage moved, payload
	// absent, selection kept.
	st := f.state(t, 1)
	assert.Equal(t, StageReading, st.Stage)
	assert.Nil(t, st.Task(1))
	require.NotNil(t, st.SelectedTopic)

	// Next lesson command retries generation and lands on the task.
	delete(f.gen.fail, "adapt")
	v, err = f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Task 1: Reading")
	assert.Contains(t, viewText(v), "Question 1/3")
	st = f.state(t, 1)
	require.NotNil(t, st.Task(1))
}

func TestEmptyTranscriptKeepsAwaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)
	_, err := f.m.SkipStage(ctx, 1)
	require.NoError(t, err)
	_, err = f.m.SkipStage(ctx, 1)
	require.NoError(t, err)

	f.gen.transcript = "   "
	v, err := f.m.SubmitSpeakingResponse(ctx, 1, []byte("silence"))
	require.ErrorIs(t, err, ErrTranscriptionEmpty)
	assert.Contains(t, viewText(v), "try recording again")

	st := f.state(t, 1)
	assert.Equal(t, StageSpeaking, st.Stage)
	assert.Nil(t, st.Speaking)

	// A retry with an audible clip still completes the lesson.
	f.gen.transcript = "Ik probeer het opnieuw."
	_, err = f.m.SubmitSpeakingResponse(ctx, 1, []byte("retry"))
	require.NoError(t, err)
	assert.Equal(t, StageDone, f.state(t, 1).Stage)
}

func TestSkipAllStages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	v, err := f.m.SkipStage(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Skipped task 1")
	assert.Contains(t, viewText(v), "Task 2: Listening")

	_, err = f.m.SkipStage(ctx, 1)
	require.NoError(t, err)
	v, err = f.m.SkipStage(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "All done for today")

	st := f.state(t, 1)
	assert.Equal(t, StageDone, st.Stage)
	require.NotNil(t, st.CompletedAt)
	// Skipped stages contribute no answers and no speaking result.
	assert.Nil(t, st.Speaking)
}

func TestStartAfterCompletionBeginsFresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)
	for i := 0; i < TaskCount; i++ {
		_, err := f.m.SkipStage(ctx, 1)
		require.NoError(t, err)
	}
	require.Equal(t, StageDone, f.state(t, 1).Stage)

	// A finished day does not block another round: the record is
	// replaced with a fresh selection, topics from the daily cache.
	v, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Pick a topic")
	st := f.state(t, 1)
	assert.Equal(t, StageSelectingTopic, st.Stage)
	assert.Nil(t, st.CompletedAt)
	assert.Empty(t, st.CollectedWords)
}

func TestOversizedOptionListRendersSafely(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.gen.extraOptions = 1

	_, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	v, err := f.m.SelectTopic(ctx, 1, 0)
	require.NoError(t, err)

	// A stored payload with more options than there are answer letters
	// still renders: only the lettered options are shown and offered.
	buttons := 0
	for _, m := range v.Messages {
		for _, row := range m.Buttons {
			buttons += len(row)
		}
	}
	assert.Equal(t, MaxAnswerOptions, buttons)
	assert.NotContains(t, viewText(v), "optie extra")

	// Answering still advances normally.
	av, err := f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "A")
	require.NoError(t, err)
	assert.Contains(t, viewText(av), "Question 2/3")
}

func TestSkipOutsideTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	_, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)

	_, err = f.m.SkipStage(ctx, 1)
	require.ErrorIs(t, err, ErrStaleAction)
}

func TestResetStartsOver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)
	_, err := f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "A")
	require.NoError(t, err)

	_, err = f.m.ResetLesson(ctx, 1)
	require.NoError(t, err)
	_, ok := f.store.states[1]
	assert.False(t, ok)

	// Fresh start goes back to topic selection, topics from cache.
	v, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Pick a topic")
}

func TestStatusSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	v, err := f.m.StatusSummary(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "No exercises yet")

	f.startSelected(t, 1)
	before := f.gen.total()
	v, err = f.m.StatusSummary(ctx, 1)
	require.NoError(t, err)
	out := viewText(v)
	assert.Contains(t, out, "⏳ Task 1: Reading")
	assert.Contains(t, out, "⬜ Task 2: Listening")
	// Status is a pure read.
	assert.Equal(t, before, f.gen.total())
}

func TestStaleRecordTreatedAsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	// Next morning: yesterday's mid-lesson record no longer counts.
	f.now = f.now.Add(24 * time.Hour)
	v, err := f.m.StatusSummary(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "No exercises yet")

	// Yesterday's answer button is stale, and the old record survives
	// untouched until a new lesson overwrites it.
	_, err = f.m.SubmitTaskAnswer(ctx, 1, 1, 0, "A")
	require.ErrorIs(t, err, ErrStaleAction)
	raw := f.store.states[int64(1)]
	require.NotNil(t, raw)
}

func TestProgressSchemaDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)

	// Simulate an older record shape with no sub-progress map.
	st := f.state(t, 1)
	st.Progress = nil
	require.NoError(t, f.store.SaveState(ctx, 1, st))

	v, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, viewText(v), "Question 1/3")

	st = f.state(t, 1)
	require.NotNil(t, st.Progress[1])
	assert.Equal(t, 0, st.Progress[1].CurrentQuestion)
}

func TestRecordAudioRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.startSelected(t, 1)
	_, err := f.m.SkipStage(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, f.m.RecordAudioRef(ctx, 1, "file-id-1"))
	assert.Equal(t, "file-id-1", f.state(t, 1).Task(2).AudioFileID)

	// First reference wins; a concurrent second upload is ignored.
	require.NoError(t, f.m.RecordAudioRef(ctx, 1, "file-id-2"))
	assert.Equal(t, "file-id-1", f.state(t, 1).Task(2).AudioFileID)

	// Resume re-renders the clip by reference, without re-synthesis.
	before := f.gen.calls["tts"]
	v, err := f.m.StartLesson(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, f.gen.calls["tts"])
	var ref string
	for _, msg := range v.Messages {
		if msg.VoiceFileID != "" {
			ref = msg.VoiceFileID
		}
	}
	assert.Equal(t, "file-id-1", ref)
}

func TestBroadcastMessageCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	cat, text, err := f.m.BroadcastMessage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, BroadcastNew, cat)
	assert.Contains(t, text, "/lesson")

	f.startSelected(t, 1)
	cat, text, err = f.m.BroadcastMessage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, BroadcastInProgress, cat)
	assert.Contains(t, text, "in progress")

	for i := 0; i < TaskCount; i++ {
		_, err = f.m.SkipStage(ctx, 1)
		require.NoError(t, err)
	}
	cat, _, err = f.m.BroadcastMessage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, BroadcastCompleted, cat)
}

func TestMorningMessageRotatesByDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	_, first, err := f.m.BroadcastMessage(ctx, 1)
	require.NoError(t, err)
	f.now = f.now.Add(24 * time.Hour)
	_, second, err := f.m.BroadcastMessage(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
