package metaclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/adstation/campaign-manager-api/internal/config"
)

// ErrTokenRenewed signals that the request failed on an expired token which
// has since been renewed; the caller should retry once.
var ErrTokenRenewed = errors.New("access token expired and renewed, retry the request")

// TokenManager owns the Graph API access token lifecycle: exchange on boot,
// proactive renewal, and in-band renewal when a response reports expiry.
type TokenManager struct {
	cfg               *config.Config
	TokenRefreshMutex sync.Mutex
	stopRefresh       chan struct{}
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		cfg:         cfg,
		stopRefresh: make(chan struct{}),
	}
}

func (tm *TokenManager) InitToken() {
	if tm.cfg.Meta.LongLivedToken == "" {
		logrus.Info("No long-lived token configured. Starting token exchange...")
		if err := tm.InitiateToken(); err != nil {
			logrus.Errorf("Failed to initialize long-lived token: %v", err)
			logrus.Warn("Graph API access may be limited until a token is configured")
			return
		}
		logrus.Info("Long-lived token initialized")
		return
	}

	if tm.cfg.Meta.TokenExpiresAt.IsZero() {
		logrus.Info("Validating existing long-lived token...")
		if err := tm.ValidateExistingToken(); err != nil {
			logrus.Errorf("Failed to validate existing token: %v", err)
			if err := tm.RefreshToken(); err != nil {
				logrus.Errorf("Failed to refresh token: %v", err)
				logrus.Warn("Graph API access may be limited until the token is renewed")
			}
		}
		return
	}

	if err := tm.EnsureValidToken(); err != nil {
		logrus.Errorf("Token validity check failed: %v", err)
	}
}

// StartAutoRefresh renews the token on a daily cadence until stopped.
func (tm *TokenManager) StartAutoRefresh() {
	refreshInterval := 23 * time.Hour
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logrus.Info("Starting periodic Graph API token renewal")
			if err := tm.RefreshToken(); err != nil {
				logrus.Errorf("Periodic token renewal failed: %v", err)
				ticker.Reset(1 * time.Hour)
			} else {
				logrus.Info("Periodic token renewal finished")
				ticker.Reset(refreshInterval)
			}
		case <-tm.stopRefresh:
			logrus.Info("Stopping periodic token renewal")
			return
		}
	}
}

func (tm *TokenManager) StopAutoRefresh() {
	close(tm.stopRefresh)
}

// InitiateToken exchanges the configured short-lived token for a long-lived
// one.
func (tm *TokenManager) InitiateToken() error {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	if tm.cfg.Meta.LongLivedToken != "" {
		return nil
	}

	tokenResponse, err := GetLongLivedToken(
		tm.cfg.Meta.AccessToken,
		tm.cfg.Meta.AppID,
		tm.cfg.Meta.AppSecret,
		tm.cfg.Meta.BaseURL,
		tm.cfg.Meta.Version,
	)
	if err != nil {
		return fmt.Errorf("obtaining long-lived token: %w", err)
	}

	tm.cfg.Meta.LongLivedToken = tokenResponse.AccessToken
	tm.cfg.Meta.TokenExpiresAt = CalculateTokenExpiration(tokenResponse.ExpiresIn)
	tm.cfg.Meta.AccessToken = tm.cfg.Meta.LongLivedToken

	logrus.Infof("Long-lived token initialized. Expires at: %s",
		tm.cfg.Meta.TokenExpiresAt.Format(time.RFC3339))

	return nil
}

// ValidateExistingToken checks the configured token and fills in its expiry.
func (tm *TokenManager) ValidateExistingToken() error {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	isValid, err := CheckTokenValidity(tm.cfg.Meta.LongLivedToken, tm.cfg.Meta.URL)
	if err != nil {
		return fmt.Errorf("checking long-lived token validity: %w", err)
	}

	if !isValid {
		return tm.refreshTokenInternal()
	}

	debugInfo, err := GetDebugTokenInfo(
		tm.cfg.Meta.LongLivedToken,
		tm.cfg.Meta.AppID,
		tm.cfg.Meta.AppSecret,
		tm.cfg.Meta.BaseURL,
		tm.cfg.Meta.Version,
	)
	if err != nil {
		return fmt.Errorf("fetching token debug info: %w", err)
	}

	if data, ok := debugInfo["data"].(map[string]interface{}); ok {
		if expiresAt, ok := data["expires_at"].(float64); ok {
			// Renew a day before the platform's deadline.
			tm.cfg.Meta.TokenExpiresAt = time.Unix(int64(expiresAt), 0).Add(-24 * time.Hour)

			logrus.Infof("Long-lived token is valid. Expires at: %s",
				tm.cfg.Meta.TokenExpiresAt.Format(time.RFC3339))

			tm.cfg.Meta.AccessToken = tm.cfg.Meta.LongLivedToken
			return nil
		}
	}

	return fmt.Errorf("could not determine when the token expires")
}

func (tm *TokenManager) RefreshToken() error {
	return tm.refreshTokenInternal()
}

func (tm *TokenManager) refreshTokenInternal() error {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	if !tm.cfg.Meta.TokenExpiresAt.IsZero() && time.Until(tm.cfg.Meta.TokenExpiresAt) < 1*time.Hour {
		logrus.Warn("Token is about to expire or already expired - manual reauthorization may be needed")
	}

	logrus.Info("Starting token renewal...")
	tokenResponse, err := GetLongLivedToken(
		tm.cfg.Meta.AccessToken,
		tm.cfg.Meta.AppID,
		tm.cfg.Meta.AppSecret,
		tm.cfg.Meta.BaseURL,
		tm.cfg.Meta.Version,
	)
	if err != nil {
		if containsTokenExpirationMessage(err.Error()) {
			logrus.Error("The access token expired and cannot be renewed automatically. Reauthorization is required")
			return fmt.Errorf("the access token expired and requires manual OAuth reauthorization: %w", err)
		}

		logrus.Errorf("Token renewal failed: %v", err)
		return fmt.Errorf("obtaining new long-lived token: %w", err)
	}

	oldToken := tm.cfg.Meta.LongLivedToken
	tm.cfg.Meta.LongLivedToken = tokenResponse.AccessToken
	tm.cfg.Meta.TokenExpiresAt = CalculateTokenExpiration(tokenResponse.ExpiresIn)
	tm.cfg.Meta.AccessToken = tm.cfg.Meta.LongLivedToken

	if oldToken != tm.cfg.Meta.LongLivedToken {
		logrus.Infof("Long-lived token renewed. Expires at: %s",
			tm.cfg.Meta.TokenExpiresAt.Format(time.RFC3339))
	} else {
		logrus.Info("Token renewed but unchanged. This may indicate a Graph API problem")
	}

	return nil
}

// EnsureValidToken renews the token proactively when it is close to expiry.
func (tm *TokenManager) EnsureValidToken() error {
	if tm.cfg.Meta.AccessToken == "" {
		logrus.Info("Token not initialized. Initializing...")
		return tm.InitiateToken()
	}

	if time.Until(tm.cfg.Meta.TokenExpiresAt) < 24*time.Hour {
		logrus.Info("Token expires within 24 hours. Renewing proactively...")
		return tm.RefreshToken()
	}

	return nil
}

// ParseErrorResponse decodes a Graph API error envelope.
func ParseErrorResponse(body []byte) (*metadomain.ErrorResponse, error) {
	var errorResp metadomain.ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return nil, err
	}
	return &errorResp, nil
}

// HandleResponse reads the body and intercepts expired-token errors,
// renewing the token in-band. Non-token errors come back as a GraphError so
// callers can classify them.
func (tm *TokenManager) HandleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	return tm.handleErrorResponse(resp.StatusCode, body)
}

func (tm *TokenManager) handleErrorResponse(status int, body []byte) ([]byte, error) {
	errorResp, parseErr := ParseErrorResponse(body)

	if parseErr == nil && errorResp.IsTokenExpired() {
		return nil, tm.handleExpiredToken(errorResp)
	}

	if containsTokenExpirationMessage(string(body)) {
		logrus.Warnf("Expired token detected in error message: %s", string(body))
		return nil, tm.renewExpiredToken()
	}

	if parseErr == nil && errorResp.Error.Code != 0 {
		return nil, &GraphError{Status: status, Details: errorResp.Error}
	}

	return nil, fmt.Errorf("Graph API error. Status: %d, Body: %s", status, string(body))
}

func (tm *TokenManager) handleExpiredToken(errorResp *metadomain.ErrorResponse) error {
	logrus.Warnf("Expired token reported by the Graph API. Code: %d, Subcode: %d",
		errorResp.Error.Code, errorResp.Error.ErrorSubcode)
	return tm.renewExpiredToken()
}

func (tm *TokenManager) renewExpiredToken() error {
	if refreshErr := tm.RefreshToken(); refreshErr != nil {
		if strings.Contains(refreshErr.Error(), "reauthorization") {
			return fmt.Errorf("token expired permanently and requires manual reauthorization: %w", refreshErr)
		}
		return fmt.Errorf("renewing expired token: %w", refreshErr)
	}

	return ErrTokenRenewed
}

func containsTokenExpirationMessage(message string) bool {
	return strings.Contains(message, "Error validating access token") ||
		strings.Contains(message, "Session has expired") ||
		strings.Contains(message, "The session has been invalidated")
}
