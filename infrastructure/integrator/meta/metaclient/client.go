package metaclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

type Client interface {
	GetEntitiesByLevel(accountExternalID string, level domain.Level) ([]metadomain.Entity, error)
	GetEntityByID(entityID string, level domain.Level) (*metadomain.Entity, error)
	GetInsightsByLevel(accountExternalID string, level domain.Level, startDate, endDate time.Time) ([]metadomain.Insight, error)
	GetAdAccountByExternalID(accountExternalID string) (*metadomain.AdAccount, error)
	UpdateEntityStatus(entityID string, active bool) error
	RefreshToken() error
	EnsureValidToken() error
	HandleResponse(resp *http.Response) ([]byte, error)
}

// GraphError is a classified non-2xx Graph API response.
type GraphError struct {
	Status  int
	Details metadomain.ErrorDetails
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("Graph API error %d (code %d, subcode %d): %s",
		e.Status, e.Details.Code, e.Details.ErrorSubcode, e.Details.Message)
}

func (e *GraphError) RateLimited() bool {
	resp := metadomain.ErrorResponse{Error: e.Details}
	return resp.IsRateLimited()
}

func (e *GraphError) PermissionDenied() bool {
	resp := metadomain.ErrorResponse{Error: e.Details}
	return resp.IsPermissionDenied()
}

type MetaClient struct {
	Cfg          *config.Config
	TokenManager *TokenManager
}

func NewClient(cfg *config.Config, tokenManager *TokenManager) Client {
	return &MetaClient{
		Cfg:          cfg,
		TokenManager: tokenManager,
	}
}

func (c *MetaClient) RefreshToken() error {
	return c.TokenManager.RefreshToken()
}

func (c *MetaClient) EnsureValidToken() error {
	return c.TokenManager.EnsureValidToken()
}

func (c *MetaClient) HandleResponse(resp *http.Response) ([]byte, error) {
	return c.TokenManager.HandleResponse(resp)
}

// actPath normalizes an ad account id into the Graph API node path. Stored
// external ids already carry the "act_" prefix, but raw numeric ids are
// accepted too.
func actPath(accountExternalID string) string {
	if strings.HasPrefix(accountExternalID, "act_") {
		return accountExternalID
	}
	return "act_" + accountExternalID
}

// levelPath maps a hierarchy level to its Graph API edge.
func levelPath(level domain.Level) string {
	switch level {
	case domain.LevelCampaign:
		return "campaigns"
	case domain.LevelAdset:
		return "adsets"
	default:
		return "ads"
	}
}

// get performs one authenticated GET and decodes the body into out. One
// retry on in-band token renewal.
func (c *MetaClient) get(requestURL string, out interface{}) error {
	if err := c.EnsureValidToken(); err != nil {
		return fmt.Errorf("checking token validity: %w", err)
	}

	body, err := c.doGet(requestURL)
	if err != nil {
		if errors.Is(err, ErrTokenRenewed) {
			// The renewed token must replace the one baked into the URL.
			body, err = c.doGet(c.withFreshToken(requestURL))
		}
		if err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		logrus.WithError(err).Error("Failed to decode Graph API response")
		return err
	}

	return nil
}

func (c *MetaClient) doGet(requestURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to build Graph API request")
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Graph API request failed")
		return nil, err
	}
	defer resp.Body.Close()

	return c.HandleResponse(resp)
}

func (c *MetaClient) withFreshToken(requestURL string) string {
	u, err := url.Parse(requestURL)
	if err != nil {
		return requestURL
	}
	q := u.Query()
	q.Set("access_token", c.Cfg.Meta.AccessToken)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *MetaClient) authParams() url.Values {
	params := url.Values{}
	params.Add("access_token", c.Cfg.Meta.AccessToken)
	return params
}
