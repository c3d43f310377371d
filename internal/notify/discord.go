package notify

import (
	"context"
	"fmt"
	"time"

	"invtracker/internal/assert"
	"invtracker/internal/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_discord_send = "discord.send"

const DefaultDiscordURL = "https://discord.com/api/v10"

// Discord posts messages to discord channels as a bot.
type Discord struct {
	http *resty.Client
	tel  telemetry.API
}

// NewDiscord creates a Discord notifier, baseUrl defaults to DefaultDiscordURL.
func NewDiscord(baseUrl, token string, tel telemetry.API) Discord {
	assert.NotEmptyStr("discord token", token)
	assert.NotNil("tel", tel)

	tel = telemetry.NewScopedAPI("notify", tel)

	if baseUrl == "" {
		baseUrl = DefaultDiscordURL
	}
	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetHeader("Authorization", "Bot "+token)
	client.SetTimeout(15 * time.Second)
	telemetry.InstrumentResty(client, "invtracker.internal.notify", tel)

	return Discord{http: client, tel: tel}
}

type discordMessage struct {
	Content string `json:"content"`
}

// Send posts text to the channel with the id destination.
func (d Discord) Send(ctx context.Context, destination, text string) error {
	res, err := d.http.R().
		SetContext(ctx).
		SetPathParam("channel", destination).
		SetBody(discordMessage{Content: text}).
		Post("/channels/{channel}/messages")
	if err != nil {
		d.tel.ReportBroken(report_discord_send, err, destination)
		return err
	}
	if res.IsError() {
		err := fmt.Errorf("post to channel %s: %s: %s", destination, res.Status(), res.String())
		d.tel.ReportBroken(report_discord_send, err)
		return err
	}
	return nil
}
