package qdrant

import (
	"encoding/json"
	"strings"

	"travel-rag/internal/domain"
)

type envelope[T any] struct {
	Status status `json:"status"`
	Result T      `json:"result"`
}

// status is either the string "ok" or an object carrying an error.
type status struct {
	State string
	Error string
}

func (s *status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

type payload struct {
	DocID         string   `json:"doc_id"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Category      string   `json:"category"`
	Country       string   `json:"country"`
	SourceCountry string   `json:"source_country"`
	Tags          []string `json:"tags"`
	Source        string   `json:"source"`
	LastUpdated   string   `json:"last_updated"`
	Reliability   float64  `json:"reliability"`
	Status        string   `json:"status"`
}

func toPayload(d domain.Document) payload {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return payload{
		DocID:         d.ID,
		Title:         d.Title,
		Body:          d.Body,
		Category:      d.Category.String(),
		Country:       d.Country,
		SourceCountry: d.SourceCountry,
		Tags:          tags,
		Source:        d.Source,
		LastUpdated:   d.LastUpdated,
		Reliability:   d.Reliability,
		Status:        d.Status.String(),
	}
}

func (p payload) document() (domain.Document, error) {
	category, err := domain.ParseCategory(p.Category)
	if err != nil {
		return domain.Document{}, err
	}
	st, err := domain.ParseDocumentStatus(p.Status)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:            p.DocID,
		Title:         p.Title,
		Body:          p.Body,
		Category:      category,
		Country:       p.Country,
		SourceCountry: p.SourceCountry,
		Tags:          p.Tags,
		Source:        p.Source,
		LastUpdated:   p.LastUpdated,
		Reliability:   p.Reliability,
		Status:        st,
	}, nil
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

type scoredPoint struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload payload `json:"payload"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type filter struct {
	Must []fieldMatch `json:"must"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	Filter      *filter   `json:"filter,omitempty"`
}

type collectionInfo struct {
	Status      string `json:"status"`
	PointsCount int    `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

func buildFilter(f domain.Filter) *filter {
	if f.IsEmpty() {
		return nil
	}
	out := &filter{}
	add := func(key, value string) {
		m := fieldMatch{Key: key}
		m.Match.Value = value
		out.Must = append(out.Must, m)
	}
	if f.Country != "" {
		add("country", f.Country)
	}
	if f.Category != nil {
		add("category", f.Category.String())
	}
	return out
}
