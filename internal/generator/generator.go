package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/sentinelgraph/sentinelgraph/internal/model"
)

// Event actions emitted by the traffic archetypes.
const (
	ActionTokenCreated   = "e_token_created"
	ActionTokenValidated = "auth_token_validated"
	ActionViewBooks      = "view_books"
	ActionViewBookDetail = "view_book_detail"
	ActionAddToCart      = "add_to_cart"
	ActionCheckout       = "checkout"

	StatusPass = "pass"
	StatusFail = "fail"
)

var stores = []string{"store-1", "store-2", "store-3", "store-4", "store-5"}

var browsePaths = []string{
	"/api/v1/%s/books",
	"/api/v1/%s/books/%d",
}

var userAgents = map[string][]string{
	"web": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	},
	"mobile": {
		"Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X)",
		"Mozilla/5.0 (iPad; CPU OS 14_7_1 like Mac OS X)",
		"Mozilla/5.0 (Linux; Android 10; SM-G973F) AppleWebKit/537.36",
	},
	"bot": {
		"Python-Requests/2.28.1",
		"curl/7.68.0",
	},
}

// Generator produces synthetic behavioral event streams. All randomness
// flows through the seeded rng/faker pair so runs are reproducible.
type Generator struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
}

// New creates a Generator seeded for reproducible output.
func New(seed int64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}
}

// identity models one actor: a user (or anonymous bot) with a stable
// IP, session and token for the duration of a journey.
type identity struct {
	userID      int64
	email       string
	clientIP    string
	sessionID   string
	authTokenID string
	deviceType  string
	userAgent   string
}

func (g *Generator) newIdentity(userID int64, malicious bool) identity {
	id := identity{
		userID:      userID,
		clientIP:    g.faker.IPv4Address(),
		sessionID:   g.newID(),
		authTokenID: fmt.Sprintf("token_%s", g.newID()[:16]),
	}
	if userID > 0 {
		id.email = g.faker.Email()
	}
	if malicious {
		// Bots show up as web clients with scripted user agents.
		id.deviceType = "web"
		id.userAgent = userAgents["bot"][g.rng.Intn(len(userAgents["bot"]))]
		return id
	}
	devices := []string{"web", "mobile"}
	id.deviceType = devices[g.rng.Intn(len(devices))]
	id.userAgent = userAgents[id.deviceType][g.rng.Intn(len(userAgents[id.deviceType]))]
	return id
}

// newID returns a time-sortable UUIDv7. uuid.NewV7 only fails if the
// entropy source does, in which case a v4 still satisfies uniqueness.
func (g *Generator) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

type eventOpts struct {
	includeSession bool
	includeUser    bool
}

func (g *Generator) event(action, status string, who identity, storeID, path string, ts time.Time, opts eventOpts) model.Event {
	ev := model.Event{
		EventID:    g.newID(),
		Action:     action,
		Status:     status,
		Timestamp:  ts,
		ClientIP:   who.clientIP,
		UserAgent:  who.userAgent,
		DeviceType: who.deviceType,
		Path:       path,
		StoreID:    storeID,
	}
	if opts.includeSession {
		ev.SessionID = who.sessionID
		ev.AuthTokenID = who.authTokenID
	}
	if opts.includeUser && who.userID > 0 {
		ev.UserID = who.userID
		ev.Email = who.email
	}

	// Query strings show up on roughly a third of real traffic.
	if g.rng.Float64() < 0.3 {
		ev.Query = fmt.Sprintf("page=%d&limit=%d", g.rng.Intn(10)+1, []int{10, 20, 50}[g.rng.Intn(3)])
	}

	switch action {
	case ActionTokenCreated:
		ev.Data = mustJSON(map[string]any{
			"e_token_expiry": ts.Add(15 * time.Minute).Format(time.RFC3339),
			"return_url":     "https://api.example.com" + path,
		})
	case ActionViewBooks, ActionViewBookDetail:
		categories := []string{"fiction", "non-fiction", "science", "programming"}
		ev.Data = mustJSON(map[string]any{
			"category": categories[g.rng.Intn(len(categories))],
			"book_id":  g.rng.Intn(100) + 1,
		})
	}
	return ev
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// NormalJourney generates one legitimate session: unauthenticated probe,
// successful auth, a few browse actions, then conditional cart/checkout.
func (g *Generator) NormalJourney(start time.Time, storeID string, who identity) []model.Event {
	var events []model.Event
	now := start

	events = append(events, g.event(ActionTokenCreated, "", who, storeID,
		fmt.Sprintf("/api/v1/%s/books", storeID), now, eventOpts{}))
	now = now.Add(time.Duration(g.rng.Intn(5)+1) * time.Second)

	events = append(events, g.event(ActionTokenValidated, StatusPass, who, storeID,
		fmt.Sprintf("/api/v1/%s/books", storeID), now, eventOpts{includeSession: true, includeUser: true}))
	now = now.Add(time.Duration(g.rng.Intn(9)+2) * time.Second)

	for i := 0; i < g.rng.Intn(4)+2; i++ {
		action := ActionViewBooks
		path := fmt.Sprintf(browsePaths[0], storeID)
		if g.rng.Intn(2) == 1 {
			action = ActionViewBookDetail
			path = fmt.Sprintf(browsePaths[1], storeID, g.rng.Intn(100)+1)
		}
		events = append(events, g.event(action, "", who, storeID, path, now,
			eventOpts{includeSession: true, includeUser: true}))
		now = now.Add(time.Duration(g.rng.Intn(28)+3) * time.Second)
	}

	if g.rng.Float64() < 0.7 {
		events = append(events, g.event(ActionAddToCart, "", who, storeID,
			fmt.Sprintf("/api/v1/%s/cart/add", storeID), now,
			eventOpts{includeSession: true, includeUser: true}))
		now = now.Add(time.Duration(g.rng.Intn(9)+2) * time.Second)

		if g.rng.Float64() < 0.4 {
			events = append(events, g.event(ActionCheckout, "", who, storeID,
				fmt.Sprintf("/api/v1/%s/checkout", storeID), now,
				eventOpts{includeSession: true, includeUser: true}))
		}
	}

	return events
}

// BruteForce generates 15-30 failed auth validations from one anonymous
// attacker in rapid succession. No session or user attribution.
func (g *Generator) BruteForce(start time.Time, storeID string) []model.Event {
	attacker := g.newIdentity(0, true)
	count := g.rng.Intn(16) + 15
	events := make([]model.Event, 0, count)
	now := start

	for i := 0; i < count; i++ {
		events = append(events, g.event(ActionTokenValidated, StatusFail, attacker, storeID,
			fmt.Sprintf("/api/v1/%s/auth/login", storeID), now, eventOpts{}))
		now = now.Add(time.Duration(g.rng.Intn(1900)+100) * time.Millisecond)
	}
	return events
}

// SessionSharing generates the core anomaly signal: a second user
// performing an authenticated action under the first user's session
// and auth token, 30-120 seconds after a successful auth.
func (g *Generator) SessionSharing(start time.Time, storeID string, baseUserID int64) []model.Event {
	first := g.newIdentity(baseUserID, false)
	second := g.newIdentity(baseUserID+1000, false)
	second.sessionID = first.sessionID
	second.authTokenID = first.authTokenID

	events := []model.Event{
		g.event(ActionTokenValidated, StatusPass, first, storeID,
			fmt.Sprintf("/api/v1/%s/books", storeID), start,
			eventOpts{includeSession: true, includeUser: true}),
	}

	later := start.Add(time.Duration(g.rng.Intn(91)+30) * time.Second)
	events = append(events, g.event(ActionViewBooks, "", second, storeID,
		fmt.Sprintf("/api/v1/%s/books", storeID), later,
		eventOpts{includeSession: true, includeUser: true}))

	return events
}

// corpusWindow is how far back generated traffic is spread.
const corpusWindow = 45 * 24 * time.Hour

// Corpus generates a mixed traffic corpus: 85% normal journeys, 10%
// brute-force attacks, 5% session-sharing patterns, sorted ascending by
// timestamp and trimmed to count.
func (g *Generator) Corpus(count int) []model.Event {
	windowStart := time.Now().UTC().Add(-corpusWindow)
	normalTarget := count * 85 / 100
	bruteTarget := count * 10 / 100
	sharingTarget := count * 5 / 100

	var events []model.Event
	randomStart := func() time.Time {
		return windowStart.Add(time.Duration(g.rng.Int63n(int64(corpusWindow))))
	}

	userID := int64(1)
	for len(events) < normalTarget {
		who := g.newIdentity(userID, false)
		events = append(events, g.NormalJourney(randomStart(), stores[g.rng.Intn(len(stores))], who)...)
		userID++
	}

	attackEvents := 0
	for attackEvents < bruteTarget {
		attack := g.BruteForce(randomStart(), stores[g.rng.Intn(len(stores))])
		events = append(events, attack...)
		attackEvents += len(attack)
	}

	sharingEvents := 0
	for sharingEvents < sharingTarget {
		sharing := g.SessionSharing(randomStart(), stores[g.rng.Intn(len(stores))], int64(g.rng.Intn(4000)+1000))
		events = append(events, sharing...)
		sharingEvents += len(sharing)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if len(events) > count {
		events = events[:count]
	}
	return events
}
