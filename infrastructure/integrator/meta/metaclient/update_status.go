package metaclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// UpdateEntityStatus posts a status flip for a campaign, ad set or ad. The
// Graph API uses the same {id} edge and status field for all three levels.
func (c *MetaClient) UpdateEntityStatus(entityID string, active bool) error {
	if err := c.EnsureValidToken(); err != nil {
		return fmt.Errorf("checking token validity: %w", err)
	}

	status := "PAUSED"
	if active {
		status = "ACTIVE"
	}

	form := url.Values{}
	form.Add("status", status)
	form.Add("access_token", c.Cfg.Meta.AccessToken)

	requestURL := fmt.Sprintf("%s/%s", c.Cfg.Meta.URL, entityID)

	err := c.doPost(requestURL, form)
	if errors.Is(err, ErrTokenRenewed) {
		form.Set("access_token", c.Cfg.Meta.AccessToken)
		err = c.doPost(requestURL, form)
	}

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"entity_id": entityID,
			"status":    status,
		}).WithError(err).Error("Failed to update entity status")
		return err
	}

	return nil
}

func (c *MetaClient) doPost(requestURL string, form url.Values) error {
	req, err := http.NewRequest(http.MethodPost, requestURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = c.HandleResponse(resp)
	return err
}
