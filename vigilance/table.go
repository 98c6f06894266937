package vigilance

// Record is one table row keyed by column name. Columns gives the order.
type Record map[string]any

// Table is a row-oriented result with a fixed set of columns.
type Table interface {
	Columns() []string
	Records() []Record
}

var (
	_ Table = PhenomenonTable(nil)
	_ Table = TimelapseTable(nil)
	_ Table = SummaryTable(nil)
	_ Table = TextBlockTable(nil)
)

var phenomenonColumns = []string{
	"echeance", "domain_id", "phenomenon_id", "phenomenon_label",
	"begin_time", "end_time", "color_id", "color_name",
}

func (t PhenomenonTable) Columns() []string { return phenomenonColumns }

func (t PhenomenonTable) Records() []Record {
	out := make([]Record, len(t))
	for i, r := range t {
		out[i] = Record{
			"echeance":         r.Echeance,
			"domain_id":        string(r.DomainID),
			"phenomenon_id":    string(r.PhenomenonID),
			"phenomenon_label": r.PhenomenonLabel,
			"begin_time":       r.BeginTime,
			"end_time":         r.EndTime,
			"color_id":         r.ColorID,
			"color_name":       r.ColorName,
		}
	}
	return out
}

var timelapseColumns = []string{
	"domain_id", "phenomenon_id", "phenomenon_label", "max_color_id", "max_color_name",
}

func (t TimelapseTable) Columns() []string { return timelapseColumns }

func (t TimelapseTable) Records() []Record {
	out := make([]Record, len(t))
	for i, r := range t {
		out[i] = Record{
			"domain_id":        string(r.DomainID),
			"phenomenon_id":    string(r.PhenomenonID),
			"phenomenon_label": r.PhenomenonLabel,
			"max_color_id":     r.MaxColorID,
			"max_color_name":   r.MaxColorName,
		}
	}
	return out
}

var summaryColumns = []string{
	"echeance", "phenomenon_id", "phenomenon_label", "any_color_count",
	"color_id", "color_name", "count",
}

func (t SummaryTable) Columns() []string { return summaryColumns }

func (t SummaryTable) Records() []Record {
	out := make([]Record, len(t))
	for i, r := range t {
		out[i] = Record{
			"echeance":         r.Echeance,
			"phenomenon_id":    string(r.PhenomenonID),
			"phenomenon_label": r.PhenomenonLabel,
			"any_color_count":  r.AnyColorCount,
			"color_id":         r.ColorID,
			"color_name":       r.ColorName,
			"count":            r.Count,
		}
	}
	return out
}

var textBlockColumns = []string{
	"domain_id", "domain_name", "bloc_id", "title", "category", "text",
}

func (t TextBlockTable) Columns() []string { return textBlockColumns }

func (t TextBlockTable) Records() []Record {
	out := make([]Record, len(t))
	for i, r := range t {
		out[i] = Record{
			"domain_id":   string(r.DomainID),
			"domain_name": r.DomainName,
			"bloc_id":     r.BlocID,
			"title":       r.Title,
			"category":    r.Category,
			"text":        r.Text,
		}
	}
	return out
}
