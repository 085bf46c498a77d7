package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// chatEvent is one inbound frame from the chat transport.
type chatEvent struct {
	Type    string `json:"type"`
	Comment string `json:"comment"`
	User    struct {
		ID string `json:"id"`
	} `json:"user"`
}

// chatReply is an outbound frame, accepted on authenticated sessions.
type chatReply struct {
	Type    string `json:"type"` // "message"
	Content string `json:"content"`
}

// ChatListener subscribes to a channel's comment stream and feeds
// 5-letter comments into the session. A single goroutine reads and
// submits synchronously, so guesses from chat can never interleave.
type ChatListener struct {
	cfg     *Config
	session *Session

	mu   sync.Mutex
	conn *websocket.Conn // non-nil while connected with a session token
}

func NewChatListener(cfg *Config, session *Session) *ChatListener {
	return &ChatListener{
		cfg:     cfg,
		session: session,
	}
}

// Run connects to the chat transport and keeps reconnecting with a
// fixed delay until ctx is cancelled. It never terminates the process.
func (l *ChatListener) Run(ctx context.Context) {
	policy := backoff.WithContext(backoff.NewConstantBackOff(l.cfg.chatBackoff), ctx)

	_ = backoff.RetryNotify(
		func() error {
			return l.listen(ctx)
		},
		policy,
		func(err error, next time.Duration) {
			log.Warn().Err(err).Str("channel", l.cfg.channel).Dur("retry_in", next).Msg("chat connection lost")
		},
	)
}

// listen runs one connection until it drops, returning the reason so
// the backoff policy schedules the next attempt.
func (l *ChatListener) listen(ctx context.Context) error {
	u, err := url.Parse(l.cfg.chatURL)
	if err != nil {
		return backoff.Permanent(err)
	}
	query := u.Query()
	query.Set("channel", l.cfg.channel)
	u.RawQuery = query.Encode()

	header := http.Header{}
	if l.cfg.chatToken != "" {
		header.Set("Authorization", "Bearer "+l.cfg.chatToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Str("channel", l.cfg.channel).Msg("connected to chat")

	if l.cfg.chatToken != "" {
		l.setConn(conn)
		defer l.setConn(nil)
	}

	// Unblock the read loop when the process shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event chatEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		l.handle(ctx, event)
	}
}

// handle filters one chat event down to a candidate guess.
func (l *ChatListener) handle(ctx context.Context, event chatEvent) {
	if event.Type != "chat-comment" {
		return
	}

	word := normalizeComment(event.Comment)
	if word == "" {
		log.Debug().Str("author", event.User.ID).Str("comment", event.Comment).Msg("comment discarded")
		return
	}

	l.session.Submit(ctx, word, event.User.ID)
}

// NotifyState implements Notifier. Board snapshots are not mirrored to
// chat; only text announcements are.
func (l *ChatListener) NotifyState(GameState) {}

// NotifyMessage mirrors a game announcement back to the chat channel.
// Only active on authenticated sessions; failures are logged and do not
// affect game state.
func (l *ChatListener) NotifyMessage(text string) {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	if conn == nil {
		return
	}

	if err := conn.WriteJSON(chatReply{Type: "message", Content: text}); err != nil {
		log.Warn().Err(err).Str("channel", l.cfg.channel).Msg("chat reply failed")
	}
}

func (l *ChatListener) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

// normalizeComment lowercases a comment and strips everything that is
// not a letter. Comments that do not reduce to exactly 5 letters are
// not guesses; the empty string is returned for those.
func normalizeComment(comment string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(comment) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}

	if b.Len() != 5 {
		return ""
	}

	return b.String()
}
