// Copyright 2024-2026 Aiku AI

package bot

import "context"

// Account is a credential store record. Identity is empty while no
// platform identity is bound; a bound identity maps to at most one
// account at any time.
type Account struct {
	ID          int64
	Login       string
	Password    string
	Identity    Address
	Link        string
	DisplayName string
}

// Button is an admin-managed navigation button. Names of active buttons
// are unique (enforced by the store, not the engine). SortOrder is
// assigned as max+1 on creation.
type Button struct {
	ID        int64
	Name      string
	URL       string
	Active    bool
	SortOrder int
}

// ChannelKind selects an entry in the channel directory.
type ChannelKind string

const (
	// ChannelLinks receives staff notifications (logins, registrations,
	// link updates).
	ChannelLinks ChannelKind = "links"
	// ChannelMessages receives relayed free-form user messages.
	ChannelMessages ChannelKind = "messages"
)

// SettingGreeting is the settings key holding the !start greeting.
const SettingGreeting = "greeting"

// Store is the credential store and channel directory consumed by the
// engine. Lookup methods return (nil, nil) when no record matches;
// mutations returning bool report false on uniqueness violations or
// missing rows instead of an error.
type Store interface {
	AccountByIdentity(ctx context.Context, identity Address) (*Account, error)
	AccountByLogin(ctx context.Context, login string) (*Account, error)
	AccountByID(ctx context.Context, id int64) (*Account, error)
	CreateAccount(ctx context.Context, login, password, displayName string) (bool, error)
	BindIdentity(ctx context.Context, accountID int64, identity Address, displayName string) error
	UnbindIdentity(ctx context.Context, accountID int64) error
	UpdateLink(ctx context.Context, accountID int64, link string) error
	UpdateLogin(ctx context.Context, accountID int64, newLogin string) (bool, error)
	UpdatePassword(ctx context.Context, accountID int64, newPassword string) (bool, error)
	DeleteAccount(ctx context.Context, accountID int64) (bool, error)
	ListAccounts(ctx context.Context) ([]*Account, error)

	Channel(ctx context.Context, kind ChannelKind) (Address, error)
	SetChannel(ctx context.Context, kind ChannelKind, id Address) error

	Setting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	CreateButton(ctx context.Context, name, url string) (bool, error)
	Buttons(ctx context.Context, activeOnly bool) ([]*Button, error)
	ButtonByID(ctx context.Context, id int64) (*Button, error)
	UpdateButton(ctx context.Context, id int64, name, url *string) error
	ToggleButton(ctx context.Context, id int64) error
	DeleteButton(ctx context.Context, id int64) error
}

// Gateway is the narrow messaging interface the core talks through. Every
// method may fail with a transport error (wrapped in ErrTransport); the
// core treats that as a per-recipient failure in broadcast context and as
// a fatal flow failure in single-operation context.
type Gateway interface {
	SendText(ctx context.Context, to Address, text string) error
	SendMedia(ctx context.Context, to Address, media Media) error
	// Probe verifies the bot can post to a channel by sending a marker
	// message and immediately retracting it.
	Probe(ctx context.Context, channel Address) error
	// RelayCopy re-sends the content of an inbound event to the target.
	RelayCopy(ctx context.Context, to Address, evt *Event) error
}
