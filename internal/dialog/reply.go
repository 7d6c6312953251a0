package dialog

import "github.com/sialweb/bookline/internal/schedule"

// PromptKind discriminates the structured input widgets the transport
// can render instead of a free-text box.
type PromptKind string

const (
	PromptChoices    PromptKind = "choices"
	PromptDayPicker  PromptKind = "day_picker"
	PromptHourPicker PromptKind = "hour_picker"
)

// StructuredPrompt tells the presentation layer that structured input is
// expected next and what the options are. Rendering is the transport's
// job; the engine only decides the options.
type StructuredPrompt struct {
	Kind    PromptKind     `json:"kind"`
	Choices []string       `json:"choices,omitempty"`
	Days    []schedule.Day `json:"days,omitempty"`
	Hours   []string       `json:"hours,omitempty"`
}

// Reply is what the engine emits for one inbound message.
type Reply struct {
	Text   string            `json:"text"`
	Prompt *StructuredPrompt `json:"prompt,omitempty"`
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

func choiceReply(text string, choices ...string) Reply {
	return Reply{Text: text, Prompt: &StructuredPrompt{Kind: PromptChoices, Choices: choices}}
}

func dayReply(text string, days []schedule.Day) Reply {
	return Reply{Text: text, Prompt: &StructuredPrompt{Kind: PromptDayPicker, Days: days}}
}

func hourReply(text string, hours []string) Reply {
	return Reply{Text: text, Prompt: &StructuredPrompt{Kind: PromptHourPicker, Hours: hours}}
}
