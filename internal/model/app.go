package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// App is one Messenger application (bot deployment). Config carries
// everything page-specific so a single server can serve several bots.
type App struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	Config    AppConfig `db:"config" json:"config"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Page struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type OTPConfig struct {
	Hostname string `json:"hostname"`
	RouterID string `json:"routerId"`
}

type NLUConfig struct {
	Token    string `json:"token"`
	Hostname string `json:"hostname,omitempty"`
}

type FeedbackConfig struct {
	To   string `json:"to"`
	From string `json:"from"`
}

type HelpConfig struct {
	City1 string `json:"city1"`
	City2 string `json:"city2"`
	City3 string `json:"city3"`
}

// StageVars are per-deployment tunables.
type StageVars struct {
	NumItineraries       int     `json:"numItineraries,omitempty"`
	IntentThreshold      float64 `json:"intentThreshold,omitempty"`
	SendTripsWide        bool    `json:"sendTripsWide,omitempty"`
	StationSelectionWide bool    `json:"requestStationSelectionWide,omitempty"`
}

type AppConfig struct {
	Pages          []Page              `json:"pages"`
	VerifyToken    string              `json:"verifyToken"`
	AppSecret      string              `json:"appSecret"`
	Timezone       string              `json:"timezone"`
	AppRootURL     string              `json:"appRootUrl"`
	StationListURL string              `json:"stationListUrl"`
	OTP            OTPConfig           `json:"otp"`
	NLU            NLUConfig           `json:"nlu"`
	Feedback       FeedbackConfig      `json:"feedback"`
	Welcome        []string            `json:"welcome"`
	Help           HelpConfig          `json:"help"`
	StageVars      StageVars           `json:"stageVars"`
	// Aliases maps a canonical stop name to regex patterns that should
	// resolve to it before fuzzy matching runs.
	Aliases map[string][]string `json:"aliases,omitempty"`
}

// PageToken returns the send token for a page, or "" when unknown.
func (c AppConfig) PageToken(pageID string) string {
	for _, p := range c.Pages {
		if p.ID == pageID {
			return p.Token
		}
	}
	return ""
}

// NumItineraries returns the display cap, falling back to def.
func (c AppConfig) NumItineraries(def int) int {
	if c.StageVars.NumItineraries > 0 {
		return c.StageVars.NumItineraries
	}
	return def
}

// IntentThreshold returns the confidence gate, falling back to def.
func (c AppConfig) IntentThreshold(def float64) float64 {
	if c.StageVars.IntentThreshold > 0 {
		return c.StageVars.IntentThreshold
	}
	return def
}

// Location resolves the app timezone, defaulting to UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

func (c *AppConfig) Scan(src any) error { return scanJSON(src, c) }
func (c AppConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}
