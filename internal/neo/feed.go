// Package neo fetches and normalizes the NASA near-Earth-object feed into
// impact-ready candidates.
package neo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/litescript/ls-impact/internal/impact"
)

var (
	// ErrFeedStatus is wrapped by StatusError for any non-2xx response.
	ErrFeedStatus = errors.New("neo feed returned an error status")
	// ErrFeedDecode is wrapped when the body is not a valid feed document.
	ErrFeedDecode = errors.New("neo feed could not be decoded")
)

// Object is one approach record reduced to what the impact engine needs.
type Object struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	DiameterM         float64 `json:"diameter_m"` // mean of the estimated range
	DiameterMinM      float64 `json:"diameter_min_m"`
	DiameterMaxM      float64 `json:"diameter_max_m"`
	VelocityKmS       float64 `json:"velocity_km_s"`
	Hazardous         bool    `json:"hazardous"`
	ApproachDate      string  `json:"approach_date,omitempty"`
	MissDistanceKm    float64 `json:"miss_distance_km,omitempty"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude_h,omitempty"`
}

// ImpactParams builds an impact scenario from the record.
func (o Object) ImpactParams(densityKgM3, angleDeg float64, target impact.Medium) impact.Params {
	return impact.Params{
		DiameterM:      o.DiameterM,
		DensityKgM3:    densityKgM3,
		VelocityKmS:    o.VelocityKmS,
		ImpactAngleDeg: angleDeg,
		Target:         target,
	}
}

// Feed is a parsed feed response.
type Feed struct {
	ElementCount int      `json:"element_count"`
	Objects      []Object `json:"objects"`
	Skipped      int      `json:"skipped"` // records missing required fields
}

// Wire format of the NeoWs feed endpoint.
type rawFeed struct {
	ElementCount     int                 `json:"element_count"`
	NearEarthObjects map[string][]rawNEO `json:"near_earth_objects"`
}

type rawNEO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter *struct {
		Meters *struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	Hazardous     bool          `json:"is_potentially_hazardous_asteroid"`
	CloseApproach []rawApproach `json:"close_approach_data"`
}

type rawApproach struct {
	Date             string `json:"close_approach_date"`
	RelativeVelocity struct {
		KmPerSec  string `json:"kilometers_per_second"`
		KmPerHour string `json:"kilometers_per_hour"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}

// Parse decodes a feed body. Records missing a diameter estimate, approach
// data or a usable velocity are counted in Skipped and left out. Objects are
// de-duplicated by ID and sorted by diameter, largest first.
func Parse(data []byte) (*Feed, error) {
	var raw rawFeed
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedDecode, err)
	}
	if raw.NearEarthObjects == nil {
		return nil, fmt.Errorf("%w: missing near_earth_objects", ErrFeedDecode)
	}

	feed := &Feed{ElementCount: raw.ElementCount}
	seen := make(map[string]bool)

	// Map order is random; walk dates in order so duplicates resolve the same way.
	dates := make([]string, 0, len(raw.NearEarthObjects))
	for d := range raw.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		for _, n := range raw.NearEarthObjects[d] {
			obj, ok := convert(n)
			if !ok {
				feed.Skipped++
				continue
			}
			if obj.ID != "" && seen[obj.ID] {
				continue
			}
			seen[obj.ID] = true
			feed.Objects = append(feed.Objects, obj)
		}
	}

	sort.SliceStable(feed.Objects, func(i, j int) bool {
		return feed.Objects[i].DiameterM > feed.Objects[j].DiameterM
	})
	return feed, nil
}

func convert(n rawNEO) (Object, bool) {
	if n.EstimatedDiameter == nil || n.EstimatedDiameter.Meters == nil || len(n.CloseApproach) == 0 {
		return Object{}, false
	}
	m := n.EstimatedDiameter.Meters
	diam := (m.Min + m.Max) / 2
	if !(diam > 0) {
		return Object{}, false
	}

	ca := n.CloseApproach[0]
	v, ok := parseVelocity(ca.RelativeVelocity.KmPerSec, ca.RelativeVelocity.KmPerHour)
	if !ok {
		return Object{}, false
	}
	miss, _ := strconv.ParseFloat(ca.MissDistance.Kilometers, 64)

	return Object{
		ID:                n.ID,
		Name:              CleanName(n.Name),
		DiameterM:         diam,
		DiameterMinM:      m.Min,
		DiameterMaxM:      m.Max,
		VelocityKmS:       v,
		Hazardous:         n.Hazardous,
		ApproachDate:      ca.Date,
		MissDistanceKm:    miss,
		AbsoluteMagnitude: n.AbsoluteMagnitude,
	}, true
}

// parseVelocity prefers km/s and falls back to km/h.
func parseVelocity(kms, kmh string) (float64, bool) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(kms), 64); err == nil && v > 0 {
		return v, true
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(kmh), 64); err == nil && v > 0 {
		return v / 3600, true
	}
	return 0, false
}

// CleanName strips the parentheses the feed wraps provisional designations in.
func CleanName(name string) string {
	return strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(name))
}

// HazardousOnly returns the potentially hazardous objects, preserving order.
func HazardousOnly(objs []Object) []Object {
	var out []Object
	for _, o := range objs {
		if o.Hazardous {
			out = append(out, o)
		}
	}
	return out
}
