package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	id "pactum/pkg/domain"
)

// RemoteVerifier asks the proposal subsystem's internal endpoint who the
// caller is. The shared secret header authenticates this service to that one.
type RemoteVerifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteVerifier(baseURL, apiKey string) *RemoteVerifier {
	return &RemoteVerifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

type verifyActorResponse struct {
	Actor string `json:"actor"`
}

func (v *RemoteVerifier) VerifyActor(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, error) {
	endpoint := fmt.Sprintf("%s/internal/transactions/%s/verify-actor?userId=%s",
		v.baseURL, transactionID.String(), url.QueryEscape(callerID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RoleNone, fmt.Errorf("build verify-actor request: %w", err)
	}
	req.Header.Set("X-Internal-Key", v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return RoleNone, fmt.Errorf("verify-actor call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RoleNone, fmt.Errorf("verify-actor returned status %d", resp.StatusCode)
	}

	var parsed verifyActorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RoleNone, fmt.Errorf("decode verify-actor response: %w", err)
	}
	return ParseRole(parsed.Actor), nil
}
