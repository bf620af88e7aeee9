package commands

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	level,
	leaderboard,
	xpAdmin,
	xpMetrics,
}
