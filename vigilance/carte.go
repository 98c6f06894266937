package vigilance

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ID is a domain, phenomenon or hazard identifier. The API sends it either as
// a JSON string or as a number.
type ID string

// UnmarshalJSON accepts both "01" and 1.
func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Carte is the cartevigilance payload.
type Carte struct {
	Product *CarteProduct `json:"product" xml:"product"`
}

// CarteProduct holds the vigilance map for every period.
type CarteProduct struct {
	WarningType      string    `json:"warning_type" xml:"warning_type"`
	TypeCDP          string    `json:"type_cdp" xml:"type_cdp"`
	VersionVigilance string    `json:"version_vigilance" xml:"version_vigilance"`
	UpdateTime       time.Time `json:"update_time" xml:"update_time"`
	DomainID         ID        `json:"domain_id" xml:"domain_id"`
	GlobalMaxColorID int       `json:"global_max_color_id" xml:"global_max_color_id"`
	Periods          []Period  `json:"periods" xml:"periods"`
}

// Period is the map for one echeance.
type Period struct {
	Echeance           string             `json:"echeance" xml:"echeance"`
	BeginValidityTime  time.Time          `json:"begin_validity_time" xml:"begin_validity_time"`
	EndValidityTime    time.Time          `json:"end_validity_time" xml:"end_validity_time"`
	PerPhenomenonItems []PhenomenonCounts `json:"per_phenomenon_items" xml:"per_phenomenon_items"`
	Timelaps           *Timelaps          `json:"timelaps" xml:"timelaps"`
}

// zones returns the per-zone timelaps, nil when the key is absent.
func (p Period) zones() []DomainTimelaps {
	if p.Timelaps == nil {
		return nil
	}
	return p.Timelaps.DomainIDs
}

// PhenomenonCounts tells how many zones are at each color for a phenomenon.
type PhenomenonCounts struct {
	PhenomenonID     ID           `json:"phenomenon_id" xml:"phenomenon_id"`
	AnyColorCount    int          `json:"any_color_count" xml:"any_color_count"`
	PhenomenonCounts []ColorCount `json:"phenomenon_counts" xml:"phenomenon_counts"`
}

// ColorCount is the number of zones at a given color.
type ColorCount struct {
	ColorID   int    `json:"color_id" xml:"color_id"`
	ColorName string `json:"color_name" xml:"color_name"`
	Count     int    `json:"count" xml:"count"`
}

// Timelaps holds the per-zone evolution of the warning levels. An empty
// DomainIDs list means no zone is reported; a nil one means the key is absent.
type Timelaps struct {
	DomainIDs []DomainTimelaps `json:"domain_ids" xml:"domain_ids"`
}

// DomainTimelaps is the evolution for one zone.
type DomainTimelaps struct {
	DomainID        ID                   `json:"domain_id" xml:"domain_id"`
	MaxColorID      int                  `json:"max_color_id" xml:"max_color_id"`
	PhenomenonItems []PhenomenonTimelaps `json:"phenomenon_items" xml:"phenomenon_items"`
}

// PhenomenonTimelaps is the sequence of time windows for one phenomenon in one zone.
type PhenomenonTimelaps struct {
	PhenomenonID         ID             `json:"phenomenon_id" xml:"phenomenon_id"`
	PhenomenonMaxColorID int            `json:"phenomenon_max_color_id" xml:"phenomenon_max_color_id"`
	TimelapsItems        []TimelapsItem `json:"timelaps_items" xml:"timelaps_items"`
}

// TimelapsItem is a time window with a constant color.
type TimelapsItem struct {
	BeginTime time.Time `json:"begin_time" xml:"begin_time"`
	EndTime   time.Time `json:"end_time" xml:"end_time"`
	ColorID   int       `json:"color_id" xml:"color_id"`
}

// validate checks the keys the tables are built from.
func (c *Carte) validate() error {
	if c.Product == nil {
		return errors.New("missing product")
	}
	if len(c.Product.Periods) == 0 {
		return errors.New("missing product.periods")
	}
	for i, p := range c.Product.Periods {
		if p.Echeance == "" {
			return fmt.Errorf("periods[%d]: missing echeance", i)
		}
		for j, item := range p.PerPhenomenonItems {
			if item.PhenomenonID == "" {
				return fmt.Errorf("periods[%d].per_phenomenon_items[%d]: missing phenomenon_id", i, j)
			}
		}
		if p.Timelaps == nil {
			return fmt.Errorf("periods[%d]: missing timelaps", i)
		}
		if p.Timelaps.DomainIDs == nil {
			return fmt.Errorf("periods[%d]: missing timelaps.domain_ids", i)
		}
		for j, d := range p.Timelaps.DomainIDs {
			if d.DomainID == "" {
				return fmt.Errorf("periods[%d].timelaps.domain_ids[%d]: missing domain_id", i, j)
			}
			for k, ph := range d.PhenomenonItems {
				if ph.PhenomenonID == "" {
					return fmt.Errorf("periods[%d].timelaps.domain_ids[%d].phenomenon_items[%d]: missing phenomenon_id", i, j, k)
				}
			}
		}
	}
	return nil
}
