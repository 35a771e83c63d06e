package tui

import "github.com/mmcdole/vidcat/internal/domain"

// ChannelObserver adapts domain.SessionObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan domain.MediaSession
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan domain.MediaSession) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnSessionChange sends the session without blocking. When the channel is
// full the oldest snapshot is dropped so the newest always gets through.
func (o *ChannelObserver) OnSessionChange(s domain.MediaSession) {
	select {
	case o.ch <- s:
		return
	default:
	}
	select {
	case <-o.ch:
	default:
	}
	select {
	case o.ch <- s:
	default:
	}
}
