package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"
	"sjsage522/shiftcodeworker/services/store"

	"github.com/go-resty/resty/v2"
)

// Discord caps an embed description at 4096 characters
const maxDescriptionLength = 3900

const embedColor = 0xBF1313

type discordEmbed struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color"`
	Description string `json:"description"`
}

type discordAllowedMentions struct {
	Parse []string `json:"parse"`
}

type discordPayload struct {
	Embeds          []discordEmbed         `json:"embeds"`
	AllowedMentions discordAllowedMentions `json:"allowed_mentions"`
}

// DiscordPublisher posts new codes to a Discord webhook
type DiscordPublisher struct {
	client     *resty.Client
	webhookURL string
	source     string
	log        *logger.Logger
}

// NewDiscordPublisher creates a publisher for webhookURL. source links the
// embed title back to the page the codes came from.
func NewDiscordPublisher(webhookURL, source string) *DiscordPublisher {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(2)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res != nil && (res.StatusCode() == 429 || res.StatusCode() >= 500)
	})

	return &DiscordPublisher{
		client:     client,
		webhookURL: webhookURL,
		source:     source,
		log:        logger.ForPublisher("discord"),
	}
}

// Name returns the publisher name
func (p *DiscordPublisher) Name() string {
	return "discord"
}

// Publish posts one message per batch of lines, each within Discord's limits
func (p *DiscordPublisher) Publish(ctx context.Context, records []store.CodeRecord) error {
	batches := batchLines(records, maxDescriptionLength)
	for i, description := range batches {
		payload := discordPayload{
			Embeds: []discordEmbed{{
				Title:       "New Borderlands 4 SHiFT Codes",
				URL:         p.source,
				Color:       embedColor,
				Description: description,
			}},
			AllowedMentions: discordAllowedMentions{Parse: []string{}},
		}

		res, err := p.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post(p.webhookURL)
		if err != nil {
			return perrors.NewPublisher(p.Name(), fmt.Sprintf("failed to post batch %d/%d", i+1, len(batches)), err)
		}
		if res.IsError() {
			body := res.String()
			if len(body) > 200 {
				body = body[:200]
			}
			return perrors.NewPublisher(p.Name(), fmt.Sprintf("webhook HTTP %d", res.StatusCode()), fmt.Errorf("%s", body))
		}
	}

	p.log.Info().Int("count", len(records)).Int("messages", len(batches)).Msg("Posted codes to webhook")
	return nil
}

// Close implements Publisher
func (p *DiscordPublisher) Close() error {
	return nil
}

// batchLines renders one bullet line per record with its expiry and groups
// them into descriptions no longer than limit.
func batchLines(records []store.CodeRecord, limit int) []string {
	var batches []string
	var current strings.Builder
	for _, record := range records {
		expiration := record.Expiration
		if expiration == "" {
			expiration = "Unknown"
		}
		line := fmt.Sprintf("• `%s` - %s", record.Code, expiration)
		if current.Len() > 0 && current.Len()+1+len(line) > limit {
			batches = append(batches, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		batches = append(batches, current.String())
	}
	return batches
}
