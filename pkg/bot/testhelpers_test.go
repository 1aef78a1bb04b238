// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const (
	adminAddr Address = "@operator:example.com"
	userAddr  Address = "@alice:example.com"
	otherAddr Address = "@bob:example.com"
	linksChan Address = "!links:example.com"
	msgsChan  Address = "!messages:example.com"
)

// sentMessage records one outbound delivery for test assertions.
type sentMessage struct {
	To    Address
	Text  string
	Media *Media
}

// mockGateway captures outbound messages and can be told to fail
// deliveries to specific addresses.
type mockGateway struct {
	mu       sync.Mutex
	sent     []sentMessage
	probeErr error
	failTo   map[Address]error
}

func newMockGateway() *mockGateway {
	return &mockGateway{failTo: make(map[Address]error)}
}

func (g *mockGateway) SendText(_ context.Context, to Address, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failTo[to]; err != nil {
		return err
	}
	g.sent = append(g.sent, sentMessage{To: to, Text: text})
	return nil
}

func (g *mockGateway) SendMedia(_ context.Context, to Address, media Media) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failTo[to]; err != nil {
		return err
	}
	g.sent = append(g.sent, sentMessage{To: to, Media: &media})
	return nil
}

func (g *mockGateway) Probe(_ context.Context, _ Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.probeErr
}

func (g *mockGateway) RelayCopy(_ context.Context, to Address, evt *Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failTo[to]; err != nil {
		return err
	}
	g.sent = append(g.sent, sentMessage{To: to, Text: evt.Text, Media: evt.Media})
	return nil
}

func (g *mockGateway) Sent() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]sentMessage, len(g.sent))
	copy(cp, g.sent)
	return cp
}

// TextsTo returns every text delivered to one address, in order.
func (g *mockGateway) TextsTo(to Address) []string {
	var texts []string
	for _, msg := range g.Sent() {
		if msg.To == to && msg.Media == nil {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (g *mockGateway) lastTextTo(t *testing.T, to Address) string {
	t.Helper()
	texts := g.TextsTo(to)
	if len(texts) == 0 {
		t.Fatalf("no texts sent to %s", to)
	}
	return texts[len(texts)-1]
}

// waitForText polls for an asynchronous delivery containing substr.
func (g *mockGateway) waitForText(t *testing.T, to Address, substr string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, text := range g.TextsTo(to) {
			if strings.Contains(text, substr) {
				return text
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no text to %s containing %q, got %v", to, substr, g.TextsTo(to))
	return ""
}

// mockStore is an in-memory Store.
type mockStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*Account
	buttons  map[int64]*Button
	channels map[ChannelKind]Address
	settings map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: make(map[int64]*Account),
		buttons:  make(map[int64]*Button),
		channels: make(map[ChannelKind]Address),
		settings: make(map[string]string),
	}
}

// addAccount seeds an account directly, bypassing flow logic.
func (s *mockStore) addAccount(login, password string, identity Address) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	acct := &Account{ID: s.nextID, Login: login, Password: password, Identity: identity}
	s.accounts[acct.ID] = acct
	return acct
}

func (s *mockStore) AccountByIdentity(_ context.Context, identity Address) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.Identity != "" && acct.Identity == identity {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *mockStore) AccountByLogin(_ context.Context, login string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.Login == login {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *mockStore) AccountByID(_ context.Context, id int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acct
	return &cp, nil
}

func (s *mockStore) CreateAccount(_ context.Context, login, password, displayName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.Login == login {
			return false, nil
		}
	}
	s.nextID++
	s.accounts[s.nextID] = &Account{ID: s.nextID, Login: login, Password: password, DisplayName: displayName}
	return true, nil
}

func (s *mockStore) BindIdentity(_ context.Context, accountID int64, identity Address, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[accountID]; ok {
		acct.Identity = identity
		acct.DisplayName = displayName
	}
	return nil
}

func (s *mockStore) UnbindIdentity(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[accountID]; ok {
		acct.Identity = ""
	}
	return nil
}

func (s *mockStore) UpdateLink(_ context.Context, accountID int64, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[accountID]; ok {
		acct.Link = link
	}
	return nil
}

func (s *mockStore) UpdateLogin(_ context.Context, accountID int64, newLogin string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acct := range s.accounts {
		if id != accountID && acct.Login == newLogin {
			return false, nil
		}
	}
	acct, ok := s.accounts[accountID]
	if !ok {
		return false, nil
	}
	acct.Login = newLogin
	return true, nil
}

func (s *mockStore) UpdatePassword(_ context.Context, accountID int64, newPassword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return false, nil
	}
	acct.Password = newPassword
	return true, nil
}

func (s *mockStore) DeleteAccount(_ context.Context, accountID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return false, nil
	}
	delete(s.accounts, accountID)
	return true, nil
}

func (s *mockStore) ListAccounts(_ context.Context) ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]*Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		cp := *acct
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *mockStore) Channel(_ context.Context, kind ChannelKind) (Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[kind], nil
}

func (s *mockStore) SetChannel(_ context.Context, kind ChannelKind, id Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[kind] = id
	return nil
}

func (s *mockStore) Setting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *mockStore) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *mockStore) CreateButton(_ context.Context, name, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxOrder := 0
	for _, btn := range s.buttons {
		if btn.Active && btn.Name == name {
			return false, nil
		}
		if btn.SortOrder > maxOrder {
			maxOrder = btn.SortOrder
		}
	}
	s.nextID++
	s.buttons[s.nextID] = &Button{ID: s.nextID, Name: name, URL: url, Active: true, SortOrder: maxOrder + 1}
	return true, nil
}

func (s *mockStore) Buttons(_ context.Context, activeOnly bool) ([]*Button, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buttons := make([]*Button, 0, len(s.buttons))
	for _, btn := range s.buttons {
		if activeOnly && !btn.Active {
			continue
		}
		cp := *btn
		buttons = append(buttons, &cp)
	}
	sort.Slice(buttons, func(i, j int) bool { return buttons[i].SortOrder < buttons[j].SortOrder })
	return buttons, nil
}

func (s *mockStore) ButtonByID(_ context.Context, id int64) (*Button, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	btn, ok := s.buttons[id]
	if !ok {
		return nil, nil
	}
	cp := *btn
	return &cp, nil
}

func (s *mockStore) UpdateButton(_ context.Context, id int64, name, url *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	btn, ok := s.buttons[id]
	if !ok {
		return nil
	}
	if name != nil {
		btn.Name = *name
	}
	if url != nil {
		btn.URL = *url
	}
	return nil
}

func (s *mockStore) ToggleButton(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if btn, ok := s.buttons[id]; ok {
		btn.Active = !btn.Active
	}
	return nil
}

func (s *mockStore) DeleteButton(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buttons, id)
	return nil
}

func testConfig() *Config {
	return &Config{
		Admins:            []string{string(adminAddr)},
		Greeting:          "Welcome!",
		CaptchaLength:     5,
		MinLoginLength:    3,
		MinPasswordLength: 6,
		Broadcast:         BroadcastConfig{Delay: 0, ProgressEvery: 2},
	}
}

func newTestEngine(t *testing.T) (*Engine, *mockStore, *mockGateway) {
	t.Helper()
	store := newMockStore()
	gw := newMockGateway()
	engine := NewEngine(testConfig(), store, gw, zerolog.Nop())
	return engine, store, gw
}

func textEvent(sender Address, text string) *Event {
	return &Event{Sender: sender, SenderName: "tester", Kind: EventText, Text: text}
}

func cmdEvent(sender Address, command, args string) *Event {
	return &Event{Sender: sender, SenderName: "tester", Kind: EventCommand, Command: command, Args: args}
}

func mediaEvent(sender Address, kind MediaKind, ref, caption string) *Event {
	return &Event{
		Sender:     sender,
		SenderName: "tester",
		Kind:       EventMedia,
		Text:       caption,
		Media:      &Media{Kind: kind, Ref: ref, Caption: caption},
	}
}
