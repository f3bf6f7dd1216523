// Package commands describes slash commands for the registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. AdminOnly commands are guarded by the admin
// check and, like Hidden ones, left out of the Telegram command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are matched against text messages, with or without the slash.
	Aliases []string
}
