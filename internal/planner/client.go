package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// DefaultRouterID is used when an app doesn't pin an OTP router.
const DefaultRouterID = "default"

// Client talks to one OpenTripPlanner instance.
type Client struct {
	hostname string
	routerID string
	http     *http.Client
}

func NewClient(hostname, routerID string) *Client {
	if routerID == "" {
		routerID = DefaultRouterID
	}
	return &Client{
		hostname: hostname,
		routerID: routerID,
		http:     &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) RouterID() string {
	return c.routerID
}

// FindStops lists stops near a point, or every stop the router knows when
// params is nil.
func (c *Client) FindStops(ctx context.Context, params *StopParams) ([]model.Stop, error) {
	q := url.Values{}
	if params != nil {
		q.Set("lat", strconv.FormatFloat(params.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(params.Lon, 'f', -1, 64))
		q.Set("radius", strconv.Itoa(params.Radius))
	}

	var stops []model.Stop
	if err := c.get(ctx, fmt.Sprintf("otp/routers/%s/index/stops", c.routerID), q, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// FindPlans runs one trip-planning query. A planner-level error payload is
// surfaced as a PLANNER_ERROR with the backend's message.
func (c *Client) FindPlans(ctx context.Context, params PlanParams) (*Plan, error) {
	q := url.Values{}
	q.Set("fromPlace", params.FromPlace)
	q.Set("toPlace", params.ToPlace)
	q.Set("mode", params.Mode)
	q.Set("maxWalkDistance", strconv.FormatFloat(params.MaxWalkDistance, 'f', -1, 64))
	q.Set("numItineraries", strconv.Itoa(params.NumItineraries))
	q.Set("showIntermediateStops", strconv.FormatBool(params.ShowIntermediateStops))
	if params.Locale != "" {
		q.Set("locale", params.Locale)
	}
	if params.ArriveBy {
		q.Set("arriveBy", "true")
	}
	if params.Date != "" {
		q.Set("date", params.Date)
	}
	if params.Time != "" {
		q.Set("time", params.Time)
	}

	var resp PlanResponse
	if err := c.get(ctx, fmt.Sprintf("otp/routers/%s/plan", c.routerID), q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, apperrors.Planner(resp.Error.Msg, nil)
	}
	if resp.Plan == nil {
		return nil, apperrors.Planner("planner returned no plan", nil)
	}
	return resp.Plan, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest any) error {
	endpoint := fmt.Sprintf("http://%s/%s", c.hostname, path)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.External("otp", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.External("otp",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode otp response: %w", err)
	}
	return nil
}
