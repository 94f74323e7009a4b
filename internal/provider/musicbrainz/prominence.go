package musicbrainz

import (
	"sort"
	"strconv"
	"strings"
)

// Prominence describes a track's position within its authoritative
// release. The JSON field names are the durable cache file contract.
type Prominence struct {
	ReleaseTitle *string `json:"release_title"`
	ReleaseDate  *string `json:"release_date"`
	ReleaseType  string  `json:"release_type"`
	TrackCount   *int    `json:"track_count"`
	TrackNumber  *int    `json:"track_number"`
	Found        bool    `json:"found"`
}

// NotFoundProminence returns the record for a track with no usable
// catalog data.
func NotFoundProminence() *Prominence {
	return &Prominence{ReleaseType: "unknown"}
}

// Release types never considered authoritative for prominence.
var disallowedSecondaryTypes = map[string]bool{
	"Compilation":    true,
	"Live":           true,
	"Mixtape/Street": true,
	"DJ-mix":         true,
	"Broadcast":      true,
	"Interview":      true,
}

// Sort priority among allowed primary types: albums beat EPs beat
// singles within the same year.
var typePriority = map[string]int{
	"Album":  0,
	"EP":     1,
	"Single": 2,
}

type releaseCandidate struct {
	release *MBRelease
	date    string
	typ     string
}

// ChooseRelease applies the deterministic selection policy over all
// releases of all candidate recordings: keep official releases of an
// allowed primary type with no disallowed secondary type and at least
// a year of date information, then pick the earliest by
// (year, type priority, full date). When nothing survives the filters
// it falls back to the first release of the first recording,
// unfiltered. The second return reports whether any release was
// chosen at all.
func ChooseRelease(recordings []MBRecording) (*MBRelease, bool) {
	var candidates []releaseCandidate
	for ri := range recordings {
		rec := &recordings[ri]
		for i := range rec.Releases {
			rel := &rec.Releases[i]
			if rel.Status != "Official" {
				continue
			}
			bad := false
			for _, sec := range rel.ReleaseGroup.SecondaryTypes {
				if disallowedSecondaryTypes[sec] {
					bad = true
					break
				}
			}
			if bad {
				continue
			}
			primary := rel.ReleaseGroup.PrimaryType
			if _, ok := typePriority[primary]; !ok {
				continue
			}
			if len(rel.Date) < 4 {
				continue
			}
			candidates = append(candidates, releaseCandidate{
				release: rel,
				date:    rel.Date,
				typ:     primary,
			})
		}
	}

	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			yi, yj := candidates[i].date[:4], candidates[j].date[:4]
			if yi != yj {
				return yi < yj
			}
			pi, pj := typePriority[candidates[i].typ], typePriority[candidates[j].typ]
			if pi != pj {
				return pi < pj
			}
			return candidates[i].date < candidates[j].date
		})
		return candidates[0].release, true
	}

	// Best-effort fallback: the first release of the first recording,
	// with no filtering. Low confidence, but better than nothing for a
	// track whose catalog entries are all non-standard.
	if len(recordings) > 0 && len(recordings[0].Releases) > 0 {
		return &recordings[0].Releases[0], true
	}
	return nil, false
}

// ExtractProminence derives the prominence record from the candidate
// recordings. Field extraction is best-effort: a field that cannot be
// parsed is left unset rather than failing the record.
func ExtractProminence(recordings []MBRecording) *Prominence {
	result := NotFoundProminence()

	release, ok := ChooseRelease(recordings)
	if !ok {
		return result
	}

	title := release.Title
	if title == "" {
		title = "unknown"
	}
	date := release.Date
	if date == "" {
		date = "unknown"
	}
	result.ReleaseTitle = &title
	result.ReleaseDate = &date

	if release.ReleaseGroup.PrimaryType != "" {
		result.ReleaseType = release.ReleaseGroup.PrimaryType
	}
	for _, sec := range release.ReleaseGroup.SecondaryTypes {
		if sec == "Compilation" {
			result.ReleaseType = "Compilation"
			break
		}
	}

	if len(release.Media) > 0 {
		medium := release.Media[0]
		if len(medium.Tracks) > 0 {
			if n, ok := digitsToInt(medium.Tracks[0].Number); ok {
				result.TrackNumber = &n
			}
		}
		if medium.TrackCount > 0 {
			count := medium.TrackCount
			result.TrackCount = &count
		}
	}

	result.Found = true
	return result
}

// digitsToInt extracts the digits-only portion of a mixed-format track
// number ("7A" -> 7). Returns false when the string holds no digits.
func digitsToInt(s string) (int, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
