package reporting

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// resultCandidate is one action type that may stand as the "result" of an
// objective, with the label the dashboard renders for it.
type resultCandidate struct {
	ActionType string
	Label      string
}

const (
	labelReach        = "Reach"
	labelConversation = "Cuộc trò chuyện được bắt đầu"
	labelFirstReply   = "Phản hồi đầu tiên"
	labelEngagement   = "Lượt tương tác"
	labelLead         = "Khách hàng tiềm năng"
	labelPurchase     = "Lượt mua hàng"
	labelLinkClick    = "Lượt nhấp vào liên kết"
	labelPageLike     = "Lượt thích Trang"
	labelVideoView    = "Lượt xem video"
	labelAppInstall   = "Lượt cài đặt ứng dụng"
)

// reachObjectives short-circuit result selection: the result is the reach
// itself, no action-type lookup.
var reachObjectives = map[string]bool{
	"REACH":             true,
	"BRAND_AWARENESS":   true,
	"OUTCOME_AWARENESS": true,
}

// objectiveCandidates maps an objective to its ordered result candidates.
// The first candidate present in the row's actions with a positive value is
// selected; when none match, the first candidate stands with value 0.
var objectiveCandidates = map[string][]resultCandidate{
	"MESSAGES": {
		{"onsite_conversion.messaging_conversation_started_7d", labelConversation},
		{"onsite_conversion.messaging_first_reply", labelFirstReply},
		{"post_engagement", labelEngagement},
		{"page_engagement", labelEngagement},
	},
	"OUTCOME_ENGAGEMENT": {
		{"onsite_conversion.messaging_conversation_started_7d", labelConversation},
		{"onsite_conversion.messaging_first_reply", labelFirstReply},
		{"post_engagement", labelEngagement},
		{"page_engagement", labelEngagement},
	},
	"LEAD_GENERATION": {
		{"lead", labelLead},
		{"onsite_conversion.lead_grouped", labelLead},
	},
	"OUTCOME_LEADS": {
		{"lead", labelLead},
		{"onsite_conversion.lead_grouped", labelLead},
	},
	"CONVERSIONS": {
		{"purchase", labelPurchase},
		{"offsite_conversion.fb_pixel_purchase", labelPurchase},
		{"lead", labelLead},
	},
	"OUTCOME_SALES": {
		{"purchase", labelPurchase},
		{"offsite_conversion.fb_pixel_purchase", labelPurchase},
		{"onsite_conversion.purchase", labelPurchase},
	},
	"PRODUCT_CATALOG_SALES": {
		{"offsite_conversion.fb_pixel_purchase", labelPurchase},
	},
	"LINK_CLICKS": {
		{"link_click", labelLinkClick},
	},
	"OUTCOME_TRAFFIC": {
		{"link_click", labelLinkClick},
	},
	"POST_ENGAGEMENT": {
		{"post_engagement", labelEngagement},
		{"page_engagement", labelEngagement},
	},
	"PAGE_LIKES": {
		{"like", labelPageLike},
	},
	"VIDEO_VIEWS": {
		{"video_view", labelVideoView},
	},
	"APP_INSTALLS": {
		{"app_install", labelAppInstall},
		{"mobile_app_install", labelAppInstall},
	},
	"OUTCOME_APP_PROMOTION": {
		{"app_install", labelAppInstall},
		{"mobile_app_install", labelAppInstall},
	},
}

// defaultCandidates covers objectives the mapping does not know yet.
var defaultCandidates = []resultCandidate{
	{"link_click", labelLinkClick},
	{"post_engagement", labelEngagement},
}

// DeriveResult selects the objective-appropriate result metric of a merged
// row and its cost. Non-finite inputs never propagate: every coercion goes
// through utils.Finite.
func DeriveResult(rec *domain.InsightRecord) (count int64, label string, costPerResult float64) {
	if rec == nil {
		return 0, "", 0
	}

	if reachObjectives[rec.Objective] {
		count = rec.Reach
		label = labelReach
		if count > 0 {
			costPerResult = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(rec.Spend, float64(count)))
		}
		return count, label, costPerResult
	}

	candidates, ok := objectiveCandidates[rec.Objective]
	if !ok {
		if rec.Objective != "" {
			logrus.WithField("objective", rec.Objective).Debug("report: objective not mapped, using default result candidates")
		}
		candidates = defaultCandidates
	}

	selected := candidates[0]
	for _, cand := range candidates {
		if v, present := domain.ActionValue(rec.Actions, cand.ActionType); present && v > 0 {
			selected = cand
			count = int64(math.Round(utils.Finite(v)))
			break
		}
	}
	label = selected.Label

	if cost, present := domain.ActionValue(rec.CostPerAction, selected.ActionType); present && cost > 0 {
		costPerResult = utils.RoundWithTwoDecimalPlace(utils.Finite(cost))
	} else if count > 0 {
		costPerResult = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(rec.Spend, float64(count)))
	}

	return count, label, costPerResult
}
