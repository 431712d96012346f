package liga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fantasy_go/internal/domain"
	"fantasy_go/internal/infra"
)

// Client is the REST client for the remote manager-game market API
// (Boundary Layer). It owns no state beyond the connection; every method is
// a single request/response exchange.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new manager API client.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL: cfg.API.BaseURL,
		token:   cfg.API.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "liga_client"),
	}
}

// GetCurrentUser resolves the session subject to a user id.
func (c *Client) GetCurrentUser(ctx context.Context) (int64, error) {
	var user userDTO
	if err := c.get(ctx, "/api/v3/user/me", &user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// GetAccountCash fetches the team's cash balance.
func (c *Client) GetAccountCash(ctx context.Context, teamID int64) (int64, error) {
	var fin financesDTO
	path := fmt.Sprintf("/api/v3/teams/%d/finances", teamID)
	if err := c.get(ctx, path, &fin); err != nil {
		return 0, err
	}
	return fin.Cash, nil
}

// GetTeamData fetches one team's snapshot (asset value plus roster).
func (c *Client) GetTeamData(ctx context.Context, leagueID, teamID int64) (*domain.TeamData, error) {
	var team teamDTO
	path := fmt.Sprintf("/api/v3/leagues/%d/teams/%d", leagueID, teamID)
	if err := c.get(ctx, path, &team); err != nil {
		return nil, err
	}
	return team.toDomain(), nil
}

// GetLeagueRanking fetches the league ranking.
func (c *Client) GetLeagueRanking(ctx context.Context, leagueID int64) ([]domain.RankingEntry, error) {
	var rows []rankingEntryDTO
	path := fmt.Sprintf("/api/v3/leagues/%d/ranking", leagueID)
	if err := c.get(ctx, path, &rows); err != nil {
		return nil, err
	}
	result := make([]domain.RankingEntry, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

// GetMarketSnapshot fetches the whole market listing for a league.
func (c *Client) GetMarketSnapshot(ctx context.Context, leagueID int64) ([]*domain.MarketEntry, error) {
	var rows []marketEntryDTO
	path := fmt.Sprintf("/api/v3/leagues/%d/market", leagueID)
	if err := c.get(ctx, path, &rows); err != nil {
		return nil, err
	}
	result := make([]*domain.MarketEntry, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

// GetOffersForListing fetches existing offers on one listing. A 404 (listing
// not ours, or no offers at all) maps to domain.ErrLookupMiss: expected,
// non-exceptional, handled silently upstream.
func (c *Client) GetOffersForListing(ctx context.Context, leagueID, listingID int64) ([]domain.RemoteOffer, error) {
	var rows []offerDTO
	path := fmt.Sprintf("/api/v3/leagues/%d/market/%d/offers", leagueID, listingID)
	if err := c.get(ctx, path, &rows); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrLookupMiss
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrLookupMiss
	}
	result := make([]domain.RemoteOffer, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

// PlaceBid submits a new bid and returns the server-assigned offer id.
func (c *Client) PlaceBid(ctx context.Context, leagueID, listingID, amount int64) (int64, error) {
	var resp offerIDResponse
	path := fmt.Sprintf("/api/v3/leagues/%d/market/%d/offers", leagueID, listingID)
	if err := c.do(ctx, http.MethodPost, "place_bid", path, placeBidRequest{Amount: amount}, &resp); err != nil {
		return 0, err
	}
	c.logger.Info("Bid placed", slog.Int64("listing", listingID), slog.Int64("offer", resp.ID))
	return resp.ID, nil
}

// ModifyBid changes an existing bid's amount.
func (c *Client) ModifyBid(ctx context.Context, leagueID, listingID, offerID, newAmount int64) (int64, error) {
	var resp offerIDResponse
	path := fmt.Sprintf("/api/v3/leagues/%d/market/%d/offers/%d", leagueID, listingID, offerID)
	if err := c.do(ctx, http.MethodPut, "modify_bid", path, modifyBidRequest{Amount: newAmount}, &resp); err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		resp.ID = offerID
	}
	return resp.ID, nil
}

// CancelBid withdraws an existing bid.
func (c *Client) CancelBid(ctx context.Context, leagueID, listingID, offerID int64) error {
	path := fmt.Sprintf("/api/v3/leagues/%d/market/%d/offers/%d", leagueID, listingID, offerID)
	return c.do(ctx, http.MethodDelete, "cancel_bid", path, nil, nil)
}

// ListOnMarket puts a roster player up for sale; returns the listing id.
func (c *Client) ListOnMarket(ctx context.Context, leagueID, teamEntryID, price int64) (int64, error) {
	var resp listingIDResponse
	path := fmt.Sprintf("/api/v3/leagues/%d/market", leagueID)
	body := listPlayerRequest{TeamEntryID: teamEntryID, Price: price}
	if err := c.do(ctx, http.MethodPost, "list_player", path, body, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// WithdrawFromMarket removes a listing.
func (c *Client) WithdrawFromMarket(ctx context.Context, leagueID, listingID int64) error {
	path := fmt.Sprintf("/api/v3/leagues/%d/market/%d", leagueID, listingID)
	return c.do(ctx, http.MethodDelete, "withdraw_player", path, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, "get", path, nil, out)
}

// notFoundError lets GetOffersForListing distinguish the expected 404 probe
// miss from real failures.
type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return "not found: " + e.path
}

func isNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

// do performs one request and decodes the response envelope.
// A non-success envelope becomes a RemoteRejection carrying the server's
// message verbatim, so the user sees the server's own rejection reason.
func (c *Client) do(ctx context.Context, method, op, path string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{path: path}
	}

	var env struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	if env.Status != http.StatusOK {
		infra.GlobalMetrics.RecordRemoteRejection()
		return &domain.RemoteRejection{Op: op, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
