package metaclient

import (
	"fmt"
	"time"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

type ResponseInsights struct {
	Data   []metadomain.Insight `json:"data"`
	Paging metadomain.Paging    `json:"paging"`
}

func insightFields(level domain.Level) string {
	base := "spend,impressions,clicks,reach,frequency,actions,cost_per_action_type,objective"
	switch level {
	case domain.LevelCampaign:
		return "campaign_id,campaign_name," + base
	case domain.LevelAdset:
		return "adset_id,adset_name,campaign_id," + base
	default:
		return "ad_id,ad_name,adset_id,campaign_id," + base
	}
}

// GetInsightsByLevel fetches one row per entity per day for the window.
// time_increment=1 keeps the series daily so ingestion stays append-only at
// day granularity.
func (c *MetaClient) GetInsightsByLevel(accountExternalID string, level domain.Level, startDate, endDate time.Time) ([]metadomain.Insight, error) {
	baseURL := fmt.Sprintf("%s/%s/insights", c.Cfg.Meta.URL, actPath(accountExternalID))

	timeRange := fmt.Sprintf("{\"since\":\"%s\",\"until\":\"%s\"}",
		startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))

	params := c.authParams()
	params.Add("level", string(level))
	params.Add("fields", insightFields(level))
	params.Add("time_range", timeRange)
	params.Add("time_increment", "1")
	params.Add("limit", "500")

	insights := make([]metadomain.Insight, 0)
	requestURL := baseURL + "?" + params.Encode()

	for requestURL != "" {
		var response ResponseInsights
		if err := c.get(requestURL, &response); err != nil {
			return nil, err
		}

		insights = append(insights, response.Data...)
		requestURL = response.Paging.Next
	}

	return insights, nil
}
