// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/dictation"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
	"github.com/jeranaias/chatwidget/internal/util"
)

// View renders the chat view.
func (m Model) View() string {
	if m.closed {
		return ""
	}
	if m.minimized {
		return m.renderMinimized()
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.alert != "" {
		parts = append(parts, m.renderAlert())
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}

// =============================================================================
// FRAME
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	title := t.HeaderTitle.Render("Chat")
	hint := ""
	if id := m.core.ConversationID(); id != "" {
		hint = t.HeaderHint.Render("  " + util.TruncateWidth(id, 24))
	}
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	return t.Header.Width(width).Render(title + hint)
}

func (m Model) renderMinimized() string {
	label := "Chat (minimized)  " + m.theme.ShortcutKey.Render("C-n") + " " +
		m.theme.ShortcutDesc.Render("restore")
	return m.theme.Minimized.Render(label)
}

func (m Model) renderAlert() string {
	t := m.theme
	body := t.AlertTitle.Render(styles.StatusIndicators.Warning+" Notice") + "\n" +
		lipgloss.NewStyle().Width(t.BubbleWidth()).Render(m.alert) + "\n" +
		t.ShortcutDesc.Render("Press Enter to dismiss")
	return t.AlertBox.Render(body)
}

func (m Model) renderInput() string {
	input := m.input.View()
	if m.Busy() {
		input = m.theme.Typing.Render("  waiting for a reply...")
	}
	return m.theme.InputContainer.Width(m.width).Render(input)
}

func (m Model) renderStatusBar() string {
	t := m.theme
	var items []string
	items = append(items, m.renderMic())
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		items = append(items, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
	}
	return t.StatusBar.Render(strings.Join(items, "  "))
}

func (m Model) renderMic() string {
	t := m.theme
	if !m.core.DictationSupported() {
		return t.ShortcutDesc.Render("mic: n/a")
	}
	switch m.dictation.State {
	case dictation.StateRecording:
		return t.MicRecording.Render(styles.StatusIndicators.Record + " listening")
	case dictation.StateRequesting:
		return t.MicBlocked.Render("mic: asking")
	}
	if m.dictation.Permission == dictation.PermissionDenied {
		return t.MicBlocked.Render(styles.StatusIndicators.Warning + " mic blocked")
	}
	return t.MicIdle.Render("mic: ready")
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m *Model) renderMessages() string {
	if len(m.log) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(m.log))
	for _, msg := range m.log {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	t := m.theme
	width := t.BubbleWidth()

	if msg.IsTemporary {
		return t.AssistantLabel.Render(model.SenderAssistant.DisplayName()) + "\n" +
			t.Typing.Render(m.spinner.View()+" Typing")
	}

	label := t.AssistantLabel.Render(msg.Sender.DisplayName())
	if msg.Sender == model.SenderUser {
		label = t.UserLabel.Render(msg.Sender.DisplayName())
	}
	if msg.Timestamp != "" {
		label += " " + t.Timestamp.Render(msg.Timestamp)
	}

	if msg.Sender == model.SenderUser {
		bubble := t.UserBubble.Width(width).Render(msg.Text)
		return lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	}
	return label + "\n" + t.AssistantBubble.Width(width).Render(m.renderAssistantText(msg))
}

// renderAssistantText renders assistant Markdown, caching by message id.
func (m *Model) renderAssistantText(msg model.Message) string {
	if m.renderer == nil {
		return msg.Text
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out, err := m.renderer.Render(msg.Text)
	if err != nil {
		return msg.Text
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = out
	return out
}
