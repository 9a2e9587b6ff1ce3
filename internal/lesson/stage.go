package lesson

import (
	"encoding/json"
	"fmt"
)

// Stage identifies the user's position inside the daily lesson flow.
// It only ever advances forward; regression happens solely through a
// full reset that discards the day's record.
type Stage int

const (
	// StageSelectingTopic means the user has started a lesson and is
	// choosing one of the offered news topics.
	StageSelectingTopic Stage = 0
	// StageReading is task 1: reading comprehension.
	StageReading Stage = 1
	// StageListening is task 2: listening comprehension.
	StageListening Stage = 2
	// StageSpeaking is task 3: the spoken response.
	StageSpeaking Stage = 3
	// StageDone means all three tasks are completed for the day.
	StageDone Stage = 4
)

// TaskCount is the number of exercise stages in a daily lesson.
const TaskCount = 3

var stageNames = map[Stage]string{
	StageSelectingTopic: "selecting_topic",
	StageReading:        "task_1",
	StageListening:      "task_2",
	StageSpeaking:       "task_3",
	StageDone:           "done",
}

var stageByName = func() map[string]Stage {
	m := make(map[string]Stage, len(stageNames))
	for st, name := range stageNames {
		m[name] = st
	}
	return m
}()

// InTask reports whether the stage is one of the three exercise tasks.
func (s Stage) InTask() bool {
	return s >= StageReading && s <= StageSpeaking
}

// TaskNumber returns the 1-based task number, or 0 outside task stages.
func (s Stage) TaskNumber() int {
	if !s.InTask() {
		return 0
	}
	return int(s)
}

// Title returns the human-readable task name used in status views.
func (s Stage) Title() string {
	switch s {
	case StageReading:
		return "Reading"
	case StageListening:
		return "Listening"
	case StageSpeaking:
		return "Speaking"
	}
	return ""
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// MarshalJSON encodes the stage under its wire name.
func (s Stage) MarshalJSON() ([]byte, error) {
	name, ok := stageNames[s]
	if !ok {
		return nil, fmt.Errorf("lesson: unknown stage %d", int(s))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a stage from its wire name. Unknown names fail
// loudly; a record that cannot name its stage cannot be resumed.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, ok := stageByName[name]
	if !ok {
		return fmt.Errorf("lesson: unknown stage %q", name)
	}
	*s = st
	return nil
}
