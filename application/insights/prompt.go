package insights

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"journal-insights/domain/insight"
)

const systemPrompt = `You are a thoughtful journaling companion. You read a person's journal entries and reflect back the emotional patterns you notice, warmly and specifically, in second person.

Respond with a single JSON object and nothing else. No markdown, no commentary. The object must have exactly this structure:

{
  "summary": "One sentence of at most 140 characters capturing the overall emotional arc",
  "description": "150-180 words describing the period. Never mention entry titles or literal dates; use relative time phrases such as 'earlier in the week' or 'recently'",
  "annotations": [
    {
      "date": "YYYY-MM-DD, one of the entry dates",
      "narrative": "2-3 sentences on why this day mattered emotionally"
    }
  ],
  "themes": [
    {
      "name": "2-4 word specific theme name",
      "icon": "a single emoji",
      "explanation": "One sentence, at most 60 words",
      "frequency": "A phrase with the actual count, e.g. 'Appeared in 3 entries'",
      "sourceEntries": [
        { "date": "YYYY-MM-DD", "title": "the exact entry title" }
      ]
    }
  ]
}

Rules:
- Provide 3-5 annotations for the most significant dates.
- Provide 4-5 themes. Each theme must cite only entries from the input, using their exact titles and dates.
- Base everything on the entries provided. Do not invent events.`

// promptEntry is the only entry data sent upstream.
type promptEntry struct {
	Date      string  `json:"date"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	WordCount float64 `json:"word_count"`
	Mood      string  `json:"mood,omitempty"`
}

// buildUserPrompt serializes the entries with content truncated to
// maxContentChars runes.
func buildUserPrompt(entries []insight.JournalEntry, maxContentChars int) (string, error) {
	trimmed := make([]promptEntry, 0, len(entries))
	for _, e := range entries {
		trimmed = append(trimmed, promptEntry{
			Date:      e.Date,
			Title:     e.Title,
			Content:   truncateRunes(e.Content, maxContentChars),
			WordCount: e.WordCount,
			Mood:      e.Mood,
		})
	}

	payload, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize entries: %w", err)
	}

	return fmt.Sprintf("Analyze these %d journal entries and return the JSON object described in your instructions.\n\n%s", len(entries), payload), nil
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
