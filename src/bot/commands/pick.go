package commands

import (
	"log"
	"math/rand"

	"github.com/bwmarrin/discordgo"
)

// handlePickUser mentions one random member of the guild.
func (h *Handler) handlePickUser(s *discordgo.Session, i *discordgo.InteractionCreate) {
	members, err := s.GuildMembers(i.GuildID, "", 1000)
	if err != nil {
		log.Printf("commands: pickuser: %v", err)
		respond(s, i, "Something went wrong, please try again later.", true)
		return
	}
	if len(members) == 0 {
		respond(s, i, "There's nobody to pick from.", true)
		return
	}

	winner := members[rand.Intn(len(members))]
	respond(s, i, "<@"+winner.User.ID+">", false)
}
