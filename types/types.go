package types

import "fmt"

// Status tracks where an asset is in the curation lifecycle
type Status string

const (
	StatusNew       Status = "NEW"
	StatusClustered Status = "CLUSTERED"
	StatusResolved  Status = "RESOLVED"
)

// ParseStatus converts a stored status string back to a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusClustered, StatusResolved:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown asset status %q", s)
	}
}

// Asset holds one indexed media item and its quality metrics
type Asset struct {
	Key         string      `json:"key"`
	Fingerprint Fingerprint `json:"fingerprint"`
	CapturedAt  *int64      `json:"captured_at,omitempty"` // epoch seconds, nil when unknown
	Sharpness   int         `json:"sharpness"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Saturation  int         `json:"saturation"`
	Status      Status      `json:"status"`
	// Location is where a resolution kept the file; empty while it is still at Key
	Location string `json:"location,omitempty"`
}

// CurrentPath returns where the file lives now
func (a Asset) CurrentPath() string {
	if a.Location != "" {
		return a.Location
	}
	return a.Key
}

// IsKeeper reports whether a resolution has already kept this asset
func (a Asset) IsKeeper() bool {
	return a.Location != ""
}

// HasTimestamp reports whether the capture time is known
func (a Asset) HasTimestamp() bool {
	return a.CapturedAt != nil
}

// Cluster is a group of near-duplicate assets with one designated winner
type Cluster struct {
	ID        int64    `json:"id"`
	Members   []string `json:"members"`
	WinnerKey string   `json:"winner_key"`
}

// Contains reports whether key is a member of the cluster
func (c Cluster) Contains(key string) bool {
	for _, m := range c.Members {
		if m == key {
			return true
		}
	}
	return false
}

// Losers returns every member except keep, in member order
func (c Cluster) Losers(keep string) []string {
	losers := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m != keep {
			losers = append(losers, m)
		}
	}
	return losers
}

// Analysis is the output of the fingerprint and metric library for one file
type Analysis struct {
	Path        string
	Fingerprint Fingerprint
	CapturedAt  *int64
	Sharpness   int
	Width       int
	Height      int
	Saturation  int
}

// Asset converts the analysis into a fresh catalog record
func (a Analysis) Asset() Asset {
	return Asset{
		Key:         a.Path,
		Fingerprint: a.Fingerprint,
		CapturedAt:  a.CapturedAt,
		Sharpness:   a.Sharpness,
		Width:       a.Width,
		Height:      a.Height,
		Saturation:  a.Saturation,
		Status:      StatusNew,
	}
}

// Timestamp returns a pointer to a copy of ts, handy for literals and tests
func Timestamp(ts int64) *int64 {
	return &ts
}
