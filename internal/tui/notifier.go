package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada-remote/internal/notify"
)

// Notifier buffers notifications until the program picks them up. When the
// buffer is full the oldest pending message loses; Notify never blocks.
type Notifier struct {
	ch chan notify.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan notify.Notification, 32)}
}

func (n *Notifier) Notify(note notify.Notification) {
	select {
	case n.ch <- note:
	default:
		select {
		case <-n.ch:
		default:
		}
		select {
		case n.ch <- note:
		default:
		}
	}
}

type noteMsg notify.Notification

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg { return noteMsg(<-n.ch) }
}
