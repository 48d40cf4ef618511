package models

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const SourceDiscord = "discord"

type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message is the normalized form of one chat message. Instances are
// created by the fetcher and treated as read-only afterwards; the privacy
// stage returns modified copies instead of mutating in place.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Author      string       `json:"author"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments"`
	Reactions   []Reaction   `json:"reactions"`
	Mentions    []string     `json:"mentions"`
	Source      string       `json:"source"`
}

// Snowflake returns the message ID as a numeric snowflake.
func (m *Message) Snowflake() (uint64, error) {
	return strconv.ParseUint(m.ID, 10, 64)
}

// apiMessage mirrors the raw record shape returned by the retrieval service.
type apiMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Author    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
	Attachments []Attachment `json:"attachments"`
	Mentions    []struct {
		ID string `json:"id"`
	} `json:"mentions"`
	Reactions []struct {
		Emoji struct {
			Name string `json:"name"`
		} `json:"emoji"`
		Count int `json:"count"`
	} `json:"reactions"`
}

// MessagesFromAPI decodes one raw page into Messages, preserving order.
func MessagesFromAPI(data []byte) ([]*Message, error) {
	var raw []apiMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode message page: %w", err)
	}

	messages := make([]*Message, 0, len(raw))
	for _, rm := range raw {
		msg, err := messageFromAPI(&rm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func messageFromAPI(rm *apiMessage) (*Message, error) {
	ts, err := parseAPITimestamp(rm.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", rm.ID, err)
	}

	author := rm.Author.Username
	if author == "" {
		author = "unknown"
	}

	mentions := make([]string, 0, len(rm.Mentions))
	for _, mn := range rm.Mentions {
		if mn.ID != "" {
			mentions = append(mentions, mn.ID)
		}
	}

	reactions := make([]Reaction, 0, len(rm.Reactions))
	for _, r := range rm.Reactions {
		reactions = append(reactions, Reaction{Emoji: r.Emoji.Name, Count: r.Count})
	}

	return &Message{
		ID:          rm.ID,
		ChannelID:   rm.ChannelID,
		Author:      author,
		Content:     rm.Content,
		Timestamp:   ts,
		Attachments: rm.Attachments,
		Reactions:   reactions,
		Mentions:    mentions,
		Source:      SourceDiscord,
	}, nil
}

func parseAPITimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
