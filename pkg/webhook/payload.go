package webhook

// Payload is one fully rendered Slack message plus its routing data. It is
// built once by the dispatcher, owned by the queue entry until the worker
// consumes it, and never mutated after construction.
type Payload struct {
	// ID correlates worker log lines with the event that produced them.
	ID         string
	Channel    string
	Username   string
	Text       string
	WebhookURL string
	// IconEmoji is optional; empty means the webhook's default icon.
	IconEmoji string
}

// body is the wire shape Slack's webhook API expects.
type body struct {
	Channel   string  `json:"channel"`
	Username  string  `json:"username"`
	Text      string  `json:"text"`
	IconEmoji *string `json:"icon_emoji"`
}

func (p Payload) wireBody() body {
	b := body{
		Channel:  p.Channel,
		Username: p.Username,
		Text:     p.Text,
	}
	if p.IconEmoji != "" {
		icon := p.IconEmoji
		b.IconEmoji = &icon
	}
	return b
}
