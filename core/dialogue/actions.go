package dialogue

import "strings"

// ParseActionTags extracts inline action cues from generated text and
// returns the text with the cues stripped. Cues use the bracket convention
// the engine is prompted with:
//
//	[wave]        gesture only
//	[wave|happy]  gesture and emotion
//	[|happy]      emotion only
//
// Unterminated or empty brackets are left in the text untouched.
func ParseActionTags(text string) (string, []Action) {
	var (
		actions []Action
		out     strings.Builder
	)

	for {
		open := strings.IndexByte(text, '[')
		if open < 0 {
			out.WriteString(text)
			break
		}
		close := strings.IndexByte(text[open:], ']')
		if close < 0 {
			out.WriteString(text)
			break
		}
		close += open

		tag := text[open+1 : close]
		action, ok := parseActionTag(tag)
		if !ok {
			out.WriteString(text[:close+1])
			text = text[close+1:]
			continue
		}

		actions = append(actions, action)
		out.WriteString(text[:open])
		text = text[close+1:]
	}

	return strings.Join(strings.Fields(out.String()), " "), actions
}

func parseActionTag(tag string) (Action, bool) {
	if tag == "" {
		return Action{}, false
	}

	name, emotion, found := strings.Cut(tag, "|")
	name = strings.TrimSpace(name)
	emotion = strings.TrimSpace(emotion)
	if !found {
		emotion = ""
	}
	if name == "" && emotion == "" {
		return Action{}, false
	}

	// Multi-word bracket content is prose, not a cue.
	if strings.ContainsAny(name, " \t") || strings.ContainsAny(emotion, " \t") {
		return Action{}, false
	}

	return Action{Name: name, Emotion: emotion}, true
}
