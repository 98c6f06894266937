package vigilance

import "time"

// Echeance values.
const (
	EcheanceToday    = "J"
	EcheanceTomorrow = "J1"
)

// Color ids, ordered by intensity.
const (
	ColorGreen  = 1
	ColorYellow = 2
	ColorOrange = 3
	ColorRed    = 4
)

var phenomenonLabels = map[ID]string{
	"1": "vent",
	"2": "pluie",
	"3": "orages",
	"4": "crues",
	"5": "neige / verglas",
	"6": "canicule",
	"7": "grand froid",
	"8": "avalanches",
	"9": "vagues submersion",
}

var colorNames = map[int]string{
	ColorGreen:  "Vert",
	ColorYellow: "Jaune",
	ColorOrange: "Orange",
	ColorRed:    "Rouge",
}

// PhenomenonLabel returns the French label of a phenomenon id, or "" if unknown.
func PhenomenonLabel(id ID) string {
	return phenomenonLabels[id]
}

// ColorName returns the name of a color id, or "" if unknown.
func ColorName(id int) string {
	return colorNames[id]
}

// PhenomenonRow is one (zone, phenomenon, time window) entry.
type PhenomenonRow struct {
	Echeance        string
	DomainID        ID
	PhenomenonID    ID
	PhenomenonLabel string
	BeginTime       time.Time
	EndTime         time.Time
	ColorID         int
	ColorName       string
}

// PhenomenonTable lists every time window of the carte in payload order.
type PhenomenonTable []PhenomenonRow

// TimelapseRow is the highest level reached by a phenomenon in a zone.
type TimelapseRow struct {
	DomainID        ID
	PhenomenonID    ID
	PhenomenonLabel string
	MaxColorID      int
	MaxColorName    string
}

// TimelapseTable has one row per (zone, phenomenon) in order of first appearance.
type TimelapseTable []TimelapseRow

// SummaryRow is the number of zones at a color for a phenomenon and echeance.
type SummaryRow struct {
	Echeance        string
	PhenomenonID    ID
	PhenomenonLabel string
	AnyColorCount   int
	ColorID         int
	ColorName       string
	Count           int
}

// SummaryTable lists the per-phenomenon color counts of every period.
type SummaryTable []SummaryRow

// PhenomenonTable flattens the timelaps of every period.
func (c *Carte) PhenomenonTable() PhenomenonTable {
	if c.Product == nil {
		return PhenomenonTable{}
	}
	rows := PhenomenonTable{}
	for _, p := range c.Product.Periods {
		for _, d := range p.zones() {
			for _, ph := range d.PhenomenonItems {
				for _, w := range ph.TimelapsItems {
					rows = append(rows, PhenomenonRow{
						Echeance:        p.Echeance,
						DomainID:        d.DomainID,
						PhenomenonID:    ph.PhenomenonID,
						PhenomenonLabel: PhenomenonLabel(ph.PhenomenonID),
						BeginTime:       w.BeginTime,
						EndTime:         w.EndTime,
						ColorID:         w.ColorID,
						ColorName:       ColorName(w.ColorID),
					})
				}
			}
		}
	}
	return rows
}

type zonePhenomenon struct {
	domain     ID
	phenomenon ID
}

type maxColor struct {
	fromWindows  int
	hasWindows   bool
	fromDeclared int
}

func (m maxColor) value() int {
	if m.hasWindows {
		return m.fromWindows
	}
	return m.fromDeclared
}

// TimelapseTable computes the maximum color per (zone, phenomenon) over all
// windows of all periods. A pair without any window uses the declared
// phenomenon_max_color_id instead.
func (c *Carte) TimelapseTable() TimelapseTable {
	if c.Product == nil {
		return TimelapseTable{}
	}
	var order []zonePhenomenon
	levels := make(map[zonePhenomenon]*maxColor)

	for _, p := range c.Product.Periods {
		for _, d := range p.zones() {
			for _, ph := range d.PhenomenonItems {
				key := zonePhenomenon{domain: d.DomainID, phenomenon: ph.PhenomenonID}
				m, ok := levels[key]
				if !ok {
					m = &maxColor{}
					levels[key] = m
					order = append(order, key)
				}
				m.fromDeclared = max(m.fromDeclared, ph.PhenomenonMaxColorID)
				for _, w := range ph.TimelapsItems {
					if !m.hasWindows || w.ColorID > m.fromWindows {
						m.fromWindows = w.ColorID
					}
					m.hasWindows = true
				}
			}
		}
	}

	rows := make(TimelapseTable, 0, len(order))
	for _, key := range order {
		level := levels[key].value()
		rows = append(rows, TimelapseRow{
			DomainID:        key.domain,
			PhenomenonID:    key.phenomenon,
			PhenomenonLabel: PhenomenonLabel(key.phenomenon),
			MaxColorID:      level,
			MaxColorName:    ColorName(level),
		})
	}
	return rows
}

// Summary flattens per_phenomenon_items. A phenomenon without color counts
// still gets one row with a zero color.
func (c *Carte) Summary() SummaryTable {
	if c.Product == nil {
		return SummaryTable{}
	}
	rows := SummaryTable{}
	for _, p := range c.Product.Periods {
		for _, item := range p.PerPhenomenonItems {
			base := SummaryRow{
				Echeance:        p.Echeance,
				PhenomenonID:    item.PhenomenonID,
				PhenomenonLabel: PhenomenonLabel(item.PhenomenonID),
				AnyColorCount:   item.AnyColorCount,
			}
			if len(item.PhenomenonCounts) == 0 {
				rows = append(rows, base)
				continue
			}
			for _, cc := range item.PhenomenonCounts {
				row := base
				row.ColorID = cc.ColorID
				row.ColorName = cc.ColorName
				if row.ColorName == "" {
					row.ColorName = ColorName(cc.ColorID)
				}
				row.Count = cc.Count
				rows = append(rows, row)
			}
		}
	}
	return rows
}
