package resolver

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"github.com/trainchat/transit-bot-go/internal/config"
	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// Resolver maps free text or coordinates to candidate stops.
type Resolver struct {
	source  StopSource
	aliases []alias
	log     zerolog.Logger
}

type alias struct {
	canonical string
	pattern   *regexp.Regexp
}

// New builds a resolver. aliasMap maps a canonical stop name to regex
// patterns that should substitute for it; invalid patterns are skipped.
func New(source StopSource, aliasMap map[string][]string, log zerolog.Logger) *Resolver {
	r := &Resolver{source: source, log: log}
	for canonical, patterns := range aliasMap {
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				log.Warn().Str("pattern", p).Str("canonical", canonical).Msg("invalid alias pattern, skipped")
				continue
			}
			r.aliases = append(r.aliases, alias{canonical: canonical, pattern: re})
		}
	}
	return r
}

// ByCoordinates lists stops near a point, distance-ranked by the backend.
// An empty result is a legitimate "nothing nearby" outcome.
func (r *Resolver) ByCoordinates(ctx context.Context, lat, lon float64) ([]model.Stop, error) {
	return r.source.StopsNear(ctx, lat, lon, config.StationSearchRadiusMeters)
}

// ByName fuzzy-matches free text against the stop catalog. history is the
// user's past trips; stops appearing there rank ahead of equally matched
// strangers.
func (r *Resolver) ByName(ctx context.Context, text string, history []model.CurrentRequest) ([]model.Stop, error) {
	name := r.applyAliases(strings.TrimSpace(text))

	stops, err := r.source.Stops(ctx)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, apperrors.External("otp", errEmptyCatalog)
	}

	matches := matchStops(name, stops)
	r.log.Debug().Str("text", name).Int("results", len(stops)).
		Int("matches", len(matches)).Msg("match check 1")

	if len(matches) == 0 {
		// Retry with the first bare word: "Hamilton station" -> "Hamilton".
		token := firstToken(name)
		if token != "" && token != name {
			matches = matchStops(token, stops)
			r.log.Debug().Str("text", token).Int("results", len(stops)).
				Int("matches", len(matches)).Msg("match check 2")
		}
	}

	if len(matches) == 0 {
		return nil, apperrors.NoStationFound(text)
	}
	if len(matches) > config.StationMatchMax {
		return nil, apperrors.TooManyMatches(text, len(matches))
	}

	return rankByHistory(matches, history), nil
}

var errEmptyCatalog = apperrors.New(apperrors.ErrCodeExternal, "stop catalog is empty")

func (r *Resolver) applyAliases(text string) string {
	for _, a := range r.aliases {
		if a.pattern.MatchString(text) {
			r.log.Debug().Str("text", text).Str("canonical", a.canonical).Msg("alias substitution")
			return a.canonical
		}
	}
	return text
}

type stopNames []model.Stop

func (s stopNames) String(i int) string { return s[i].Name }
func (s stopNames) Len() int            { return len(s) }

func matchStops(pattern string, stops []model.Stop) []model.Stop {
	found := fuzzy.FindFrom(pattern, stopNames(stops))
	out := make([]model.Stop, 0, len(found))
	for _, m := range found {
		out = append(out, stops[m.Index])
	}
	return out
}

func firstToken(text string) string {
	collapsed := nonWord.ReplaceAllString(text, " ")
	fields := strings.Fields(collapsed)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var nonWord = regexp.MustCompile(`\W+`)

// rankByHistory moves stops the user has travelled through to the front,
// preserving fuzzy rank within each group.
func rankByHistory(matches []model.Stop, history []model.CurrentRequest) []model.Stop {
	previous := make(map[string]bool)
	for _, trip := range history {
		if s := trip.Data.OriginStop; s != nil {
			previous[s.Name] = true
		}
		if s := trip.Data.DestinationStop; s != nil {
			previous[s.Name] = true
		}
	}
	if len(previous) == 0 {
		return matches
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return previous[matches[i].Name] && !previous[matches[j].Name]
	})
	return matches
}
