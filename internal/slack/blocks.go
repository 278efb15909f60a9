package slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

// UpgradeSummary returns a one-line summary, used as the notification fallback text.
func UpgradeSummary(r *upgrade.Request) string {
	return fmt.Sprintf("Upgrade request: %s wants %s", r.UserID, r.RequestedPlan)
}

// UpgradeRequestBlocks renders a new upgrade request for the admin channel.
func UpgradeRequestBlocks(r *upgrade.Request) []slack.Block {
	var sb strings.Builder
	sb.WriteString("📈 *Upgrade Requested*\n\n")
	sb.WriteString(fmt.Sprintf("*User:* `%s`\n", r.UserID))
	sb.WriteString(fmt.Sprintf("*Plan:* %s\n", r.RequestedPlan))
	sb.WriteString(fmt.Sprintf("*Requested:* %s\n", r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")))

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", sb.String(), false, false),
			nil, nil,
		),
		slack.NewContextBlock(
			"upgrade_request_"+r.ID,
			slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("Review with `mentorctl upgrade approve %s` or `mentorctl upgrade reject %s`", r.ID, r.ID),
				false, false),
		),
	}
}
