package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"brainbuster-service/internal/domain"
)

// HighScoreStore is the slice of the user store the reporter needs.
// UpdateHighScore must only ever raise the stored value.
type HighScoreStore interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateHighScore(ctx context.Context, username string, score int) (bool, error)
}

// ScoreReporter raises users' high scores when their sessions finish. Finish events are
// queued and applied by Run.
type ScoreReporter struct {
	users   HighScoreStore
	events  chan domain.SessionFinished
	timeout time.Duration
}

func NewScoreReporter(users HighScoreStore, buffer int) *ScoreReporter {
	if buffer <= 0 {
		buffer = 256
	}
	return &ScoreReporter{
		users:   users,
		events:  make(chan domain.SessionFinished, buffer),
		timeout: 5 * time.Second,
	}
}

// SessionFinished enqueues the event without blocking.
func (r *ScoreReporter) SessionFinished(event domain.SessionFinished) {
	if strings.TrimSpace(event.Username) == "" {
		return
	}
	select {
	case r.events <- event:
	default:
		log.Printf("score queue full, dropping result of session %s", event.SessionID)
	}
}

// Run applies queued events until ctx is canceled, then drains what is left.
func (r *ScoreReporter) Run(ctx context.Context) error {
	for {
		select {
		case event := <-r.events:
			r.ReportFinish(ctx, event.Username, event.CorrectAnswers)
		case <-ctx.Done():
			r.drain()
			return nil
		}
	}
}

func (r *ScoreReporter) drain() {
	for {
		select {
		case event := <-r.events:
			r.ReportFinish(context.Background(), event.Username, event.CorrectAnswers)
		default:
			return
		}
	}
}

// ReportFinish raises the stored high score when correct beats it. Failures are logged
// and swallowed. It reports whether the score changed.
func (r *ScoreReporter) ReportFinish(ctx context.Context, username string, correct int) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Printf("high score lookup for %q failed: %v", username, err)
		}
		return false
	}
	if correct <= user.HighScore {
		return false
	}

	updated, err := r.users.UpdateHighScore(ctx, username, correct)
	if err != nil {
		log.Printf("high score update for %q failed: %v", username, err)
		return false
	}
	return updated
}
