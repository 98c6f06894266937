package vigilance

import (
	"errors"
	"strings"
	"time"
)

// Bulletin is the textesvigilance payload.
type Bulletin struct {
	Product *BulletinProduct `json:"product" xml:"product"`
}

// BulletinProduct holds the bulletin metadata and its text blocks.
type BulletinProduct struct {
	WarningType   string     `json:"warning_type" xml:"warning_type"`
	TypeCDP       string     `json:"type_cdp" xml:"type_cdp"`
	UpdateTime    time.Time  `json:"update_time" xml:"update_time"`
	DomainID      ID         `json:"domain_id" xml:"domain_id"`
	TextBlocItems []TextBloc `json:"text_bloc_items" xml:"text_bloc_items"`
}

// TextBloc groups the bulletin sections of one territory.
type TextBloc struct {
	DomainID   ID         `json:"domain_id" xml:"domain_id"`
	DomainName string     `json:"domain_name" xml:"domain_name"`
	BlocTitle  string     `json:"bloc_title" xml:"bloc_title"`
	BlocID     string     `json:"bloc_id" xml:"bloc_id"`
	BlocItems  []BlocItem `json:"bloc_items" xml:"bloc_items"`
}

// BlocItem is one section, such as the situation or the forecast.
type BlocItem struct {
	ID        string     `json:"id" xml:"id"`
	TypeCode  string     `json:"type_code" xml:"type_code"`
	TypeName  string     `json:"type_name" xml:"type_name"`
	TextItems []TextItem `json:"text_items" xml:"text_items"`
}

// TextItem is the text for one hazard.
type TextItem struct {
	HazardCode ID         `json:"hazard_code" xml:"hazard_code"`
	HazardName string     `json:"hazard_name" xml:"hazard_name"`
	TermItems  []TermItem `json:"term_items" xml:"term_items"`
}

// TermItem is the text for one validity term.
type TermItem struct {
	TermNames       string        `json:"term_names" xml:"term_names"`
	StartTime       time.Time     `json:"start_time" xml:"start_time"`
	EndTime         time.Time     `json:"end_time" xml:"end_time"`
	RiskCode        ID            `json:"risk_code" xml:"risk_code"`
	RiskName        string        `json:"risk_name" xml:"risk_name"`
	RiskLevel       int           `json:"risk_level" xml:"risk_level"`
	SubdivisionText []Subdivision `json:"subdivision_text" xml:"subdivision_text"`
}

// Subdivision is a paragraph with an optional bold heading.
type Subdivision struct {
	BoldText string   `json:"bold_text" xml:"bold_text"`
	Text     []string `json:"text" xml:"text"`
}

// TextBlockRow is one bulletin section with its text joined.
type TextBlockRow struct {
	DomainID   ID
	DomainName string
	BlocID     string
	Title      string
	Category   string
	Text       string
}

// TextBlockTable has one row per (text bloc, section) in payload order.
type TextBlockTable []TextBlockRow

func (b *Bulletin) validate() error {
	if b.Product == nil {
		return errors.New("missing product")
	}
	if b.Product.TextBlocItems == nil {
		return errors.New("missing product.text_bloc_items")
	}
	return nil
}

// TextBlocks flattens the bulletin. Paragraphs are separated by a newline.
func (b *Bulletin) TextBlocks() TextBlockTable {
	rows := TextBlockTable{}
	if b.Product == nil {
		return rows
	}
	for _, bloc := range b.Product.TextBlocItems {
		for _, item := range bloc.BlocItems {
			rows = append(rows, TextBlockRow{
				DomainID:   bloc.DomainID,
				DomainName: bloc.DomainName,
				BlocID:     bloc.BlocID,
				Title:      bloc.BlocTitle,
				Category:   item.TypeName,
				Text:       item.text(),
			})
		}
	}
	return rows
}

func (item BlocItem) text() string {
	var lines []string
	for _, ti := range item.TextItems {
		for _, term := range ti.TermItems {
			for _, sub := range term.SubdivisionText {
				if s := strings.TrimSpace(sub.BoldText); s != "" {
					lines = append(lines, s)
				}
				for _, t := range sub.Text {
					if s := strings.TrimSpace(t); s != "" {
						lines = append(lines, s)
					}
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}
