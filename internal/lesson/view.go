package lesson

// Callback actions referenced by inline buttons. The front-end
// registers a handler per action and feeds taps back into the machine.
const (
	// ActionSelectTopic carries the topic index as payload.
	ActionSelectTopic = "lesson_topic"
	// ActionAnswer carries "task|question|choice" as payload.
	ActionAnswer = "lesson_answer"
)

// Button is a single inline choice offered to the user.
type Button struct {
	Label  string
	Action string
	Data   string
}

// Message is one outbound chat message: Markdown text, optional inline
// keyboard, and at most one voice clip (raw bytes on first synthesis,
// a transport file reference on resume).
type Message struct {
	Text        string
	Buttons     [][]Button
	Voice       []byte
	VoiceFileID string
}

// View is the rendering instruction returned by every machine
// operation: the ordered messages the front-end should deliver.
type View struct {
	Messages []Message
}

func textView(texts ...string) *View {
	v := &View{}
	for _, t := range texts {
		v.Messages = append(v.Messages, Message{Text: t})
	}
	return v
}

func (v *View) add(m Message) *View {
	v.Messages = append(v.Messages, m)
	return v
}
