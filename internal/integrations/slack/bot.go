// Package slackbot is the conversation transport: it watches one channel
// over Socket Mode, feeds qualifying messages through the pipeline, and
// posts the recommendation back into the originating thread.
package slackbot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"kbwatch/internal/domain"
	"kbwatch/internal/pipeline"
)

// Bot wires the Slack event stream to the message pipeline.
type Bot struct {
	api           *slack.Client
	pipe          *pipeline.Pipeline
	channelID     string
	triggers      map[domain.Category]bool
	handleTimeout time.Duration
}

func New(api *slack.Client, pipe *pipeline.Pipeline, channelID string, triggers map[domain.Category]bool, handleTimeout time.Duration) *Bot {
	if handleTimeout <= 0 {
		handleTimeout = 2 * time.Minute
	}
	return &Bot{
		api:           api,
		pipe:          pipe,
		channelID:     channelID,
		triggers:      triggers,
		handleTimeout: handleTimeout,
	}
}

// Run connects via Socket Mode and blocks, dispatching each qualifying
// message on its own goroutine so one slow classification never stalls
// event delivery.
func (b *Bot) Run() error {
	client := socketmode.New(b.api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				log.Println("Connected to Slack Socket Mode")
			case socketmode.EventTypeConnectionError:
				log.Printf("Socket Mode connection error: %v", evt.Data)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if eventsAPIEvent.Type != slackevents.CallbackEvent {
					continue
				}
				if ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
					if b.ShouldHandle(ev) {
						go b.handleMessage(ev)
					}
				}
			}
		}
	}()

	log.Printf("Watching channel %s via Socket Mode", b.channelID)
	return client.Run()
}

// ShouldHandle filters to plain user messages in the watched channel. Bot
// posts, edits, joins and other subtypes are ignored so the bot never
// classifies its own replies.
func (b *Bot) ShouldHandle(ev *slackevents.MessageEvent) bool {
	if ev == nil || ev.Channel != b.channelID {
		return false
	}
	if ev.BotID != "" || ev.SubType != "" {
		return false
	}
	return ev.Text != ""
}

func (b *Bot) handleMessage(ev *slackevents.MessageEvent) {
	log.Printf("message received channel=%s user=%s ts=%s", ev.Channel, ev.User, ev.TimeStamp)

	ctx, cancel := context.WithTimeout(context.Background(), b.handleTimeout)
	defer cancel()

	cc := domain.ConversationContext{
		CurrentMessage: ev.Text,
		ThreadMessages: b.threadContext(ev),
	}

	rec, err := b.pipe.Handle(ctx, cc)
	if err != nil {
		// Internal failures stay out of the channel; the thread just
		// gets no reply.
		log.Printf("pipeline error channel=%s ts=%s: %v", ev.Channel, ev.TimeStamp, err)
		return
	}

	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}
	reply := b.FormatRecommendation(rec)
	if _, _, err := b.api.PostMessage(ev.Channel,
		slack.MsgOptionText(reply, false),
		slack.MsgOptionTS(threadTS),
	); err != nil {
		log.Printf("reply post error channel=%s ts=%s: %v", ev.Channel, threadTS, err)
		return
	}
	log.Printf("recommendation posted channel=%s ts=%s category=%s matched=%q", ev.Channel, threadTS, rec.Category, rec.MatchedTitle)
}

// threadContext fetches prior messages of the thread the event belongs to,
// excluding the thread root's duplicate of the current message. A
// top-level message has no prior context.
func (b *Bot) threadContext(ev *slackevents.MessageEvent) []string {
	if ev.ThreadTimeStamp == "" || ev.ThreadTimeStamp == ev.TimeStamp {
		return nil
	}
	msgs, _, _, err := b.api.GetConversationReplies(&slack.GetConversationRepliesParameters{
		ChannelID: ev.Channel,
		Timestamp: ev.ThreadTimeStamp,
	})
	if err != nil {
		log.Printf("thread replies error channel=%s thread=%s: %v", ev.Channel, ev.ThreadTimeStamp, err)
		return nil
	}
	var prior []string
	for _, m := range msgs {
		if m.Timestamp == ev.TimeStamp || m.Text == "" {
			continue
		}
		prior = append(prior, m.Text)
	}
	return prior
}

// FormatRecommendation derives the reply string posted back to the thread.
func (b *Bot) FormatRecommendation(rec domain.Recommendation) string {
	if rec.MatchedTitle != "" {
		return fmt.Sprintf("Message category: %s\nRecommended knowledge-base article to update: *%s* (relevance %.2f)",
			rec.Category, rec.MatchedTitle, rec.Confidence)
	}
	if b.triggers[rec.Category] {
		return fmt.Sprintf("Message category: %s\nNo relevant article found. Consider creating a new one.", rec.Category)
	}
	return fmt.Sprintf("Message category: %s\nNo knowledge-base update needed.", rec.Category)
}
