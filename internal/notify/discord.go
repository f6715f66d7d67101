package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordMaxContent es el límite de caracteres de un mensaje de Discord.
const discordMaxContent = 2000

// channelSender es la parte de *discordgo.Session que usamos.
type channelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier publica el resumen en un canal vía REST (sin gateway).
type DiscordNotifier struct {
	ChannelID string
	s         channelSender
}

// NewDiscordNotifier crea la sesión del bot. No abre el websocket: para
// mandar mensajes alcanza con la API REST.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: discord: %w", err)
	}
	return &DiscordNotifier{ChannelID: channelID, s: dg}, nil
}

func (d *DiscordNotifier) Notify(ctx context.Context, sum Summary) error {
	content := "**" + sum.Subject() + "**\n```\n" + sum.Text() + "```"
	if r := []rune(content); len(r) > discordMaxContent {
		content = string(r[:discordMaxContent-4]) + "…```"
	}
	_, err := d.s.ChannelMessageSendComplex(d.ChannelID, &discordgo.MessageSend{
		Content: content,
		// Sin menciones: el texto puede traer nombres de choferes.
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}
