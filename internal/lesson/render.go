package lesson

import (
	"fmt"
	"strings"

	"github.com/vladvlasov256/YourDutchBot/core/telegram/format"
)

// escapeMD neutralizes Markdown specials in externally sourced text
// (news titles) before it is embedded in a Markdown message.
func escapeMD(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

// MaxAnswerOptions is the largest option list a question may carry.
// Answers are labeled with the letters below; generators must not
// produce more options than there are letters.
const MaxAnswerOptions = 3

var answerLetters = []string{"A", "B", "C"}

// morningMessages rotate by day of month for the daily push.
var morningMessages = []string{
	"☀️ *Goedemorgen!*\n\nReady for your daily Dutch practice? Let's learn something new today!\n\nUse /lesson to begin! 🇳🇱",
	"🌅 *Good morning!*\n\nYour daily Dutch lesson is waiting. 10 minutes today = fluent tomorrow!\n\nTap /lesson to start! 💪",
	"☕ *Morning!*\n\nTime to feed your brain some Dutch! Fresh news topics are ready for you.\n\nUse /lesson to dive in! 📰",
	"🌞 *Goedemorgen!*\n\nAnother day, another step closer to mastering Dutch. Let's do this!\n\nStart with /lesson! 🚀",
	"🌄 *Rise and shine!*\n\nYour daily dose of Dutch awaits. Reading, listening, speaking - all in one lesson.\n\nUse /lesson to begin! ✨",
}

func welcomeView(firstName string, labels []string) *View {
	return textView(fmt.Sprintf(
		"Hello, %s! 👋 Welcome to YourDutchBot.\n\n"+
			"I'll help you learn Dutch (A2 level) for the inburgeringsexamen.\n\n"+
			"Every day I'll offer you exercises covering:\n"+
			"• Reading comprehension\n• Listening comprehension\n• Speaking practice\n\n"+
			"Topics: %s\n\n"+
			"Commands:\n/lesson - Start today's lesson\n/status - Check today's progress\n/reset - Start over today's exercises\n\n"+
			"Use /lesson to get your first exercises! Tot zo! 🇳🇱",
		firstName, strings.Join(labels, ", ")))
}

func welcomeBackView(firstName string) *View {
	return textView(fmt.Sprintf(
		"Welcome back, %s! 👋\n\n"+
			"You're already registered. Use /lesson to practice and /status to check your progress.",
		firstName))
}

func topicSelectionView(topics []Article) *View {
	var b strings.Builder
	b.WriteString("📰 *Pick a topic for today's lesson:*\n\n")
	buttons := make([][]Button, 0, len(topics))
	for i, t := range topics {
		fmt.Fprintf(&b, "%d. %s", i+1, escapeMD(t.Title))
		if t.Source != "" {
			fmt.Fprintf(&b, " _(%s)_", escapeMD(t.Source))
		}
		b.WriteString("\n")
		buttons = append(buttons, []Button{{
			Label:  fmt.Sprintf("%d", i+1),
			Action: ActionSelectTopic,
			Data:   itoa(i),
		}})
	}
	return (&View{}).add(Message{Text: b.String(), Buttons: buttons})
}

func formatVocabList(words []VocabWord) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("📚 *Today's words:*\n\n")
	for _, w := range words {
		fmt.Fprintf(&b, "• *%s* — %s\n", w.Dutch, w.English)
	}
	return b.String()
}

// stageIntroView renders the entry view for task n: the generated
// content, its vocabulary, and the first pending question or the
// speaking instructions. audio carries freshly synthesized speech;
// on resume the stored file reference is used instead.
func stageIntroView(n int, task *Task, p *Progress, audio []byte) *View {
	v := &View{}
	switch Stage(n) {
	case StageReading:
		v.add(Message{Text: fmt.Sprintf("📖 *Task 1: Reading*\n\n%s", task.Content)})
	case StageListening:
		v.add(Message{Text: "🎧 *Task 2: Listening*\n\nListen to the audio and answer the questions."})
		v.add(Message{Voice: audio, VoiceFileID: task.AudioFileID})
	case StageSpeaking:
		v.add(Message{Text: fmt.Sprintf("🎤 *Task 3: Speaking*\n\n%s", task.Content)})
	}
	if vocab := formatVocabList(task.Words); vocab != "" {
		v.add(Message{Text: vocab})
	}
	if Stage(n) == StageSpeaking {
		v.add(Message{Text: "Record a voice message with your answer (2-3 sentences). 🎙"})
		return v
	}
	return v.add(questionMessage(n, task, p.CurrentQuestion))
}

func questionMessage(n int, task *Task, qi int) Message {
	q := task.Questions[qi]
	opts := q.Options
	if len(opts) > MaxAnswerOptions {
		opts = opts[:MaxAnswerOptions]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "❓ *Question %d/%d*\n\n%s\n\n", qi+1, len(task.Questions), q.Question)
	row := make([]Button, 0, len(opts))
	for i, opt := range opts {
		letter := answerLetters[i]
		fmt.Fprintf(&b, "%s) %s\n", letter, opt)
		row = append(row, Button{
			Label:  letter,
			Action: ActionAnswer,
			Data:   fmt.Sprintf("%d|%d|%s", n, qi, letter),
		})
	}
	return Message{Text: b.String(), Buttons: [][]Button{row}}
}

func answerFeedback(correct bool, correctLetter string) string {
	if correct {
		return "✅ Goed zo! That's correct."
	}
	return fmt.Sprintf("❌ Not quite. The correct answer was *%s*.", correctLetter)
}

func stageScoreText(n, correct, total int) string {
	return fmt.Sprintf("🏁 *Task %d completed!*\n\nScore: %d/%d", n, correct, total)
}

// scoreStars maps the evaluation score to the star rating shown to
// the user.
func scoreStars(score string) string {
	switch score {
	case "good":
		return "⭐⭐⭐"
	case "ok":
		return "⭐⭐"
	default:
		return "⭐"
	}
}

func evaluationView(res *SpeakingResult, collected []VocabWord) *View {
	var b strings.Builder
	fmt.Fprintf(&b, "🗣 *Speaking feedback* %s\n\n%s\n", scoreStars(res.Evaluation.Score), res.Evaluation.Feedback)
	if res.Evaluation.Corrected != "" {
		fmt.Fprintf(&b, "\n✏️ Corrected version:\n_%s_\n", res.Evaluation.Corrected)
	}
	v := textView(b.String())
	v.add(Message{Text: "🎉 *All done for today!*\n\nYou completed all 3 exercises.\nSee you tomorrow! Tot morgen! 🇳🇱"})
	if vocab := formatVocabList(collected); vocab != "" {
		v.add(Message{Text: vocab})
	}
	return v
}

func statusChecklist(st *State) string {
	mark := func(n int) string {
		current := st.Stage.TaskNumber()
		switch {
		case st.Stage == StageDone || current > n:
			return "✅"
		case current == n:
			return "⏳"
		default:
			return "⬜"
		}
	}
	var b strings.Builder
	b.WriteString("📊 *Today's Progress:*\n\n")
	fmt.Fprintf(&b, "%s Task 1: Reading\n", mark(1))
	fmt.Fprintf(&b, "%s Task 2: Listening\n", mark(2))
	fmt.Fprintf(&b, "%s Task 3: Speaking\n", mark(3))
	if st.Stage == StageSelectingTopic {
		b.WriteString("\nCurrent step: picking a topic")
	} else if st.Stage.InTask() {
		fmt.Fprintf(&b, "\nCurrent task: %s", st.Stage.Title())
	}
	return b.String()
}

// GuidanceView maps an expected lesson error to the message shown to
// the user. Unknown errors get a generic retry hint.
func GuidanceView(err error) *View {
	switch {
	case err == nil:
		return nil
	case err == ErrNotRegistered:
		return textView("You are not registered yet. Use /start to begin!")
	case err == ErrStaleSelection:
		return textView("Topic selection is already closed. Use /status to see where you are.")
	case err == ErrStaleAction:
		return textView("That button is no longer active. Use /status to see where you are.")
	case err == ErrInvalidSelection:
		return textView("That choice doesn't exist. Please use the buttons below the message.")
	case err == ErrTranscriptionEmpty:
		return textView("I couldn't hear anything in that voice message. 🎙 Please try recording again.")
	case err == ErrNoTopics:
		return textView("😕 I couldn't fetch fresh news topics right now. Please try /lesson again later.")
	default:
		return textView("⚠️ Something went wrong while preparing your exercise. Use /lesson to try again.")
	}
}
