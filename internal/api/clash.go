package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"royale-tracker/internal/config"
)

// ClashClient talks to the official Clash Royale REST API. Player tags are
// passed without the leading '#'; it is escaped into the URL here.
type ClashClient struct {
	token   string
	baseURL string
	client  *fasthttp.Client
}

func NewClashClient(cfg *config.Config) *ClashClient {
	return &ClashClient{
		token:   cfg.ClashAPIToken,
		baseURL: cfg.ClashBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *ClashClient) GetPlayer(ctx context.Context, tag string) (*PlayerResponse, error) {
	url := fmt.Sprintf("%s/players/%%23%s", c.baseURL, tag)
	return doRequest[PlayerResponse](ctx, c, url)
}

func (c *ClashClient) GetBattleLog(ctx context.Context, tag string) (BattleLog, error) {
	url := fmt.Sprintf("%s/players/%%23%s/battlelog", c.baseURL, tag)
	log, err := doRequest[BattleLog](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return *log, nil
}

func doRequest[T any](ctx context.Context, client *ClashClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+client.token)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerResponse struct {
	Tag         string `json:"tag"`
	Name        string `json:"name"`
	ExpLevel    int    `json:"expLevel"`
	Trophies    int    `json:"trophies"`
	BattleCount int    `json:"battleCount"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Clan        *struct {
		Tag  string `json:"tag"`
		Name string `json:"name"`
	} `json:"clan"`
}

// BattleLog is the battlelog endpoint payload, newest battle first.
type BattleLog []BattleLogEntry

type BattleLogEntry struct {
	Type string `json:"type"`

	// Compact timestamp, e.g. "20260301T195102.000Z". Normalized to
	// time.Time at ingestion; nothing downstream parses dates.
	BattleTime string `json:"battleTime"`

	Team     []BattleParticipant `json:"team"`
	Opponent []BattleParticipant `json:"opponent"`
}

type BattleParticipant struct {
	Tag              string       `json:"tag"`
	Name             string       `json:"name"`
	Crowns           int          `json:"crowns"`
	StartingTrophies int          `json:"startingTrophies"`
	Cards            []BattleCard `json:"cards"`
}

type BattleCard struct {
	Name     string `json:"name"`
	IconUrls struct {
		Medium string `json:"medium"`
	} `json:"iconUrls"`
}
