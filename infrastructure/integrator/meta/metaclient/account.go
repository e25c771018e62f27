package metaclient

import (
	"fmt"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
)

// GetAdAccountByExternalID fetches the account health fields used by the
// catalog sync probe.
func (c *MetaClient) GetAdAccountByExternalID(accountExternalID string) (*metadomain.AdAccount, error) {
	params := c.authParams()
	params.Add("fields", "id,name,account_status,currency,disable_reason")

	requestURL := fmt.Sprintf("%s/%s?%s", c.Cfg.Meta.URL, actPath(accountExternalID), params.Encode())

	var account metadomain.AdAccount
	if err := c.get(requestURL, &account); err != nil {
		return nil, err
	}

	if account.ID == "" {
		return nil, nil
	}

	return &account, nil
}
