package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tutorvoice/tutorvoice/pkg/core/chat"
	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	tutorLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	avatarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))
)

func renderMessage(msg types.Message) string {
	switch msg.Role {
	case types.RoleUser:
		return userLabelStyle.Render("You:") + " " + msg.Content
	case types.RoleAssistant:
		return tutorLabelStyle.Render("Tutor:") + " " + msg.Content
	case types.RoleError:
		return errorStyle.Render("! " + msg.Content)
	default:
		return msg.Content
	}
}

func renderTranscript(s types.Session) string {
	if s.MessageCount() == 0 {
		return metaStyle.Render("(empty session)")
	}
	lines := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		lines = append(lines, renderMessage(m))
	}
	return strings.Join(lines, "\n")
}

func renderAvatar(emotion types.Emotion, speaking bool) string {
	face := map[types.Emotion]string{
		types.EmotionHappy:       "(^-^)",
		types.EmotionExplaining:  "(o_o)/",
		types.EmotionThinking:    "(._.?)",
		types.EmotionEncouraging: "(n_n)b",
		types.EmotionNeutral:     "(._.)",
	}[emotion]
	if face == "" {
		face = "(._.)"
	}
	label := string(emotion)
	if speaking {
		label += ", speaking"
	}
	return avatarStyle.Render(face) + " " + metaStyle.Render(label)
}

func renderQuotaNotice(remaining int) string {
	return noticeStyle.Render("Quota reached.") + " " +
		metaStyle.Render("Resets in "+chat.FormatRemaining(remaining)+". Use /dismiss to hide.")
}

func renderCatalog(summaries []types.SessionSummary) string {
	if len(summaries) == 0 {
		return metaStyle.Render("No past sessions yet.")
	}
	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "%s %s %s\n",
			metaStyle.Render(fmt.Sprintf("%2d.", i+1)),
			s.Preview,
			metaStyle.Render(fmt.Sprintf("(%d messages, %s)",
				s.MessageCount, s.CreatedAt.Format("Jan 2 15:04"))))
	}
	return strings.TrimRight(b.String(), "\n")
}
