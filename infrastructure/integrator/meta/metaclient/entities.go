package metaclient

import (
	"fmt"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

type ResponseEntities struct {
	Data   []metadomain.Entity `json:"data"`
	Paging metadomain.Paging   `json:"paging"`
}

func entityFields(level domain.Level) string {
	switch level {
	case domain.LevelCampaign:
		return "id,name,status,effective_status,daily_budget,lifetime_budget,updated_time"
	case domain.LevelAdset:
		return "id,name,status,effective_status,daily_budget,lifetime_budget,campaign_id,updated_time"
	default:
		return "id,name,status,effective_status,adset_id,campaign_id,updated_time"
	}
}

// GetEntitiesByLevel fetches every entity of one level for an account,
// following the paging cursor until exhausted. Entities in every status are
// returned: deletion detection needs the full picture.
func (c *MetaClient) GetEntitiesByLevel(accountExternalID string, level domain.Level) ([]metadomain.Entity, error) {
	baseURL := fmt.Sprintf("%s/%s/%s", c.Cfg.Meta.URL, actPath(accountExternalID), levelPath(level))

	params := c.authParams()
	params.Add("fields", entityFields(level))
	params.Add("limit", "200")

	entities := make([]metadomain.Entity, 0)
	requestURL := baseURL + "?" + params.Encode()

	for requestURL != "" {
		var response ResponseEntities
		if err := c.get(requestURL, &response); err != nil {
			return nil, err
		}

		entities = append(entities, response.Data...)
		requestURL = response.Paging.Next
	}

	return entities, nil
}

// GetEntityByID fetches a single entity, used by the status toggle to
// confirm a change against a fresh read.
func (c *MetaClient) GetEntityByID(entityID string, level domain.Level) (*metadomain.Entity, error) {
	params := c.authParams()
	params.Add("fields", entityFields(level))

	requestURL := fmt.Sprintf("%s/%s?%s", c.Cfg.Meta.URL, entityID, params.Encode())

	var entity metadomain.Entity
	if err := c.get(requestURL, &entity); err != nil {
		return nil, err
	}

	if entity.ID == "" {
		return nil, nil
	}

	return &entity, nil
}
