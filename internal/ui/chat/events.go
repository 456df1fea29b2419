// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/dictation"
	"github.com/jeranaias/chatwidget/internal/model"
)

// EventSource is the event side of the widget.
type EventSource interface {
	OnLogChanged(fn func(model.Log)) (cancel func())
	OnDictationStateChanged(fn func(dictation.Status)) (cancel func())
	OnAlert(fn func(message string)) (cancel func())
	OnClose(fn func()) (cancel func())
	OnMinimizedChanged(fn func(minimized bool)) (cancel func())
}

// Subscribe forwards widget events to send, normally (*tea.Program).Send.
//
// Widget events can fire from inside Update (a clear, a minimize), where a
// blocking Send would deadlock the program, so every message is delivered
// from its own goroutine.
func Subscribe(src EventSource, send func(tea.Msg)) (cancel func()) {
	post := func(msg tea.Msg) { go send(msg) }

	cancels := []func(){
		src.OnLogChanged(func(model.Log) { post(LogChangedMsg{}) }),
		src.OnDictationStateChanged(func(dictation.Status) { post(DictationChangedMsg{}) }),
		src.OnAlert(func(text string) { post(AlertMsg{Text: text}) }),
		src.OnClose(func() { post(CloseMsg{}) }),
		src.OnMinimizedChanged(func(bool) { post(MinimizedChangedMsg{}) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
