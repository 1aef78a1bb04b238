// Copyright 2024-2026 Aiku AI

package bot

import (
	"fmt"
	"strings"
)

// Menu labels. Incoming free text is matched against these before the
// dynamic custom-button table, so tapping a label behaves exactly like
// typing the bound command.
const (
	LabelCancel = "❌ Cancel"

	labelSignIn   = "🔑 Sign in"
	labelRegister = "📝 Register"
	labelMyLink   = "🔗 My link"
	labelSetLink  = "🔄 Change link"
	labelWrite    = "✉️ Write to staff"
	labelSignOut  = "🚪 Sign out"

	labelUsers        = "👥 Users"
	labelAddUser      = "🏪 Add user"
	labelEditUser     = "✏️ Edit user"
	labelDeleteUser   = "🗑 Delete user"
	labelBroadcast    = "📢 Broadcast"
	labelDirect       = "📩 Direct message"
	labelGreeting     = "✏️ Edit greeting"
	labelLinksChan    = "📋 Links channel"
	labelMessagesChan = "💬 Messages channel"
	labelButtons      = "🔘 Manage buttons"

	labelAddButton    = "➕ Add button"
	labelListButtons  = "📋 List buttons"
	labelEditButton   = "✏️ Edit button"
	labelDeleteButton = "🗑 Delete button"
	labelToggleButton = "🔄 Toggle button"
)

// labelBinding maps a menu label onto the command it stands for.
type labelBinding struct {
	command string
	args    string
}

var labelBindings = map[string]labelBinding{
	labelSignIn:   {command: "login"},
	labelRegister: {command: "register"},
	labelMyLink:   {command: "link"},
	labelSetLink:  {command: "setlink"},
	labelWrite:    {command: "write"},
	labelSignOut:  {command: "logout"},

	labelUsers:        {command: "users"},
	labelAddUser:      {command: "adduser"},
	labelEditUser:     {command: "edituser"},
	labelDeleteUser:   {command: "deluser"},
	labelBroadcast:    {command: "broadcast"},
	labelDirect:       {command: "send"},
	labelGreeting:     {command: "greeting"},
	labelLinksChan:    {command: "setchannel", args: string(ChannelLinks)},
	labelMessagesChan: {command: "setchannel", args: string(ChannelMessages)},
	labelButtons:      {command: "buttons"},

	labelAddButton:    {command: "addbutton"},
	labelListButtons:  {command: "listbuttons"},
	labelEditButton:   {command: "editbutton"},
	labelDeleteButton: {command: "delbutton"},
	labelToggleButton: {command: "togglebutton"},
}

// mainMenu renders the signed-in user menu, including the active custom
// buttons in their sort order.
func mainMenu(buttons []*Button) string {
	var b strings.Builder
	b.WriteString("Menu:\n")
	b.WriteString("  " + labelMyLink + "\n")
	b.WriteString("  " + labelSetLink + "\n")
	b.WriteString("  " + labelWrite + "\n")
	for _, btn := range buttons {
		b.WriteString("  " + btn.Name + "\n")
	}
	b.WriteString("  " + labelSignOut)
	return b.String()
}

func signedOutMenu() string {
	return "Menu:\n  " + labelSignIn + "\n  " + labelRegister
}

func adminMenu() string {
	return strings.Join([]string{
		"Admin menu:",
		"  " + labelUsers,
		"  " + labelAddUser,
		"  " + labelEditUser,
		"  " + labelDeleteUser,
		"  " + labelBroadcast,
		"  " + labelDirect,
		"  " + labelGreeting,
		"  " + labelLinksChan,
		"  " + labelMessagesChan,
		"  " + labelButtons,
	}, "\n")
}

func buttonMenu() string {
	return strings.Join([]string{
		"Button management:",
		"  " + labelAddButton,
		"  " + labelListButtons,
		"  " + labelEditButton,
		"  " + labelToggleButton,
		"  " + labelDeleteButton,
	}, "\n")
}

// formatAccountList renders the admin roster.
func formatAccountList(accounts []*Account) string {
	if len(accounts) == 0 {
		return "No accounts yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Accounts (%d):\n", len(accounts))
	for _, acct := range accounts {
		name := acct.Login
		if acct.DisplayName != "" {
			name = fmt.Sprintf("%s (%s)", acct.DisplayName, acct.Login)
		}
		bound := "❌"
		if acct.Identity != "" {
			bound = "✅"
		}
		link := acct.Link
		if link == "" {
			link = "—"
		}
		fmt.Fprintf(&b, "🆔 %d: %s %s\n   Link: %s\n", acct.ID, name, bound, link)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatButtonList renders the full button table, including inactive
// entries, for the management menu.
func formatButtonList(buttons []*Button) string {
	if len(buttons) == 0 {
		return "No custom buttons yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔘 Buttons (%d):\n", len(buttons))
	for _, btn := range buttons {
		state := "off"
		if btn.Active {
			state = "on"
		}
		fmt.Fprintf(&b, "🆔 %d: %s [%s]\n   %s\n", btn.ID, btn.Name, state, btn.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
