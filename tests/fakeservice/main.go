// Standalone fake retrieval service for exercising dmr end to end. It
// serves a synthetic channel history with pagination, and can inject
// rate-limit and server-error responses to exercise the retry path.
//
// Run it, point discord.baseUrl at it, and start dmr:
//
//	go run ./tests/fakeservice -messages 5000 -rate-limit-every 25 -fail-every 40
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	addr           = flag.String("addr", "127.0.0.1:18091", "listen address")
	totalMessages  = flag.Int("messages", 1000, "number of messages in the synthetic channel")
	rateLimitEvery = flag.Int("rate-limit-every", 0, "respond 429 every Nth request (0 disables)")
	failEvery      = flag.Int("fail-every", 0, "respond 500 every Nth request (0 disables)")
	maxLimit       = flag.Int("max-limit", 100, "page size cap")
)

const baseSnowflake = 1_000_000_000_000_000_000

var sampleContents = []string{
	"anyone up for a game tonight?",
	"reach me at user%d@example.com if interested",
	"my number is 555-123-4567, call after 6",
	"server at 10.0.0.%d keeps timing out",
	"just pushed the fix, please review",
	"lol",
	"card ending 4111 1111 1111 1111 got declined again",
	"meeting moved to thursday",
}

var authors = []string{"alice", "bob", "charlie", "dave", "erin", "frank"}

type apiAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type apiMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	Author    apiAuthor `json:"author"`
}

var requestCount atomic.Int64

// messageAt builds message i of the channel, 0 being the newest. IDs and
// timestamps both descend with i, matching real snowflake ordering.
func messageAt(channelID string, i int) apiMessage {
	id := baseSnowflake - int64(i)*1000
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Minute)
	content := sampleContents[i%len(sampleContents)]
	if strings.Contains(content, "%d") {
		content = fmt.Sprintf(content, i%250)
	}
	return apiMessage{
		ID:        strconv.FormatInt(id, 10),
		ChannelID: channelID,
		Content:   content,
		Timestamp: ts.Format(time.RFC3339),
		Author:    apiAuthor{ID: strconv.Itoa(i % len(authors)), Username: authors[i%len(authors)]},
	}
}

func indexForCursor(before string) int {
	if before == "" {
		return 0
	}
	id, err := strconv.ParseInt(before, 10, 64)
	if err != nil {
		return 0
	}
	// First message strictly older than the cursor.
	return int((baseSnowflake-id)/1000) + 1
}

func messagesHandler(w http.ResponseWriter, r *http.Request) {
	n := requestCount.Add(1)

	if *rateLimitEvery > 0 && n%int64(*rateLimitEvery) == 0 {
		w.Header().Set("Retry-After", "0.5")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if *failEvery > 0 && n%int64(*failEvery) == 0 {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "channels" || parts[2] != "messages" {
		http.NotFound(w, r)
		return
	}
	channelID := parts[1]

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > *maxLimit {
		limit = *maxLimit
	}

	start := indexForCursor(r.URL.Query().Get("before"))
	page := make([]apiMessage, 0, limit)
	for i := start; i < start+limit && i < *totalMessages; i++ {
		page = append(page, messageAt(channelID, i))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func main() {
	flag.Parse()

	http.HandleFunc("/channels/", messagesHandler)

	log.Printf("fake retrieval service on http://%s (%d messages, 429 every %d, 500 every %d)",
		*addr, *totalMessages, *rateLimitEvery, *failEvery)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
