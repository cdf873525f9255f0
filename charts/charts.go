package charts

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

// Category classifies a chart within an airport's catalog.
type Category string

const (
	CategoryArrival   Category = "ARRIVAL"
	CategoryDeparture Category = "DEPARTURE"
	CategoryAirport   Category = "AIRPORT"
	CategoryApproach  Category = "APPROACH"
)

// ChartType describes the provider's typing of a chart.
type ChartType struct {
	Code      string
	Category  Category
	Details   string
	Precision string
	Section   string
}

// Chart is a single catalog entry. FileDay/FileNight name the chart image
// variants; Thumb* name their thumbnails. All are provider item paths which
// must be resolved to signed URLs before fetching.
type Chart struct {
	ID                    string
	ExtID                 string
	FileName              string
	FileDay               string
	FileNight             string
	ThumbDay              string
	ThumbNight            string
	ICAOAirportIdentifier string
	ProcedureIdentifier   string
	Type                  ChartType
}

// AirportCharts partitions a catalog into the four display buckets.
// Charts with an unrecognised category appear in no bucket.
type AirportCharts struct {
	Arrival   []Chart
	Departure []Chart
	Airport   []Chart
	Approach  []Chart
}

// Total is the number of charts across all buckets.
func (ac AirportCharts) Total() int {
	return len(ac.Arrival) + len(ac.Departure) + len(ac.Airport) + len(ac.Approach)
}

// Wire shapes for the provider's charts.json payload.
type catalogFile struct {
	Charts []chartRecord `json:"charts"`
}

type chartRecord struct {
	ID                    string          `json:"id"`
	ExtID                 string          `json:"ext_id"`
	FileName              string          `json:"file_name"`
	FileDay               string          `json:"file_day"`
	FileNight             string          `json:"file_night"`
	ThumbDay              string          `json:"thumb_day"`
	ThumbNight            string          `json:"thumb_night"`
	ICAOAirportIdentifier string          `json:"icao_airport_identifier"`
	ProcedureIdentifier   string          `json:"procedure_identifier"`
	Type                  chartTypeRecord `json:"type"`
}

type chartTypeRecord struct {
	Code      string `json:"code"`
	Category  string `json:"category"`
	Details   string `json:"details"`
	Precision string `json:"precision"`
	Section   string `json:"section"`
}

// DecodeCatalog parses a charts.json payload into domain charts. Records
// missing an id, file name, day image, or category fail decoding outright
// rather than producing half-empty charts.
func DecodeCatalog(data []byte) ([]Chart, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrDecode, "[DecodeCatalog] %v", err)
	}

	charts := make([]Chart, 0, len(file.Charts))
	for i, record := range file.Charts {
		chart, err := record.toChart()
		if err != nil {
			return nil, errors.Wrapf(err, "[DecodeCatalog] chart %d", i)
		}
		charts = append(charts, chart)
	}
	return charts, nil
}

func (cr chartRecord) toChart() (Chart, error) {
	if cr.ID == "" {
		return Chart{}, fmt.Errorf("missing id: %w", errors.ErrDecode)
	}
	if cr.FileName == "" {
		return Chart{}, fmt.Errorf("missing file_name: %w", errors.ErrDecode)
	}
	if cr.FileDay == "" {
		return Chart{}, fmt.Errorf("missing file_day: %w", errors.ErrDecode)
	}
	if cr.Type.Category == "" {
		return Chart{}, fmt.Errorf("missing type.category: %w", errors.ErrDecode)
	}

	return Chart{
		ID:                    cr.ID,
		ExtID:                 cr.ExtID,
		FileName:              cr.FileName,
		FileDay:               cr.FileDay,
		FileNight:             cr.FileNight,
		ThumbDay:              cr.ThumbDay,
		ThumbNight:            cr.ThumbNight,
		ICAOAirportIdentifier: cr.ICAOAirportIdentifier,
		ProcedureIdentifier:   cr.ProcedureIdentifier,
		Type: ChartType{
			Code:      cr.Type.Code,
			Category:  Category(cr.Type.Category),
			Details:   cr.Type.Details,
			Precision: cr.Type.Precision,
			Section:   cr.Type.Section,
		},
	}, nil
}

// Partition buckets charts by category. Every chart lands in at most one
// bucket; unknown categories are dropped.
func Partition(charts []Chart) AirportCharts {
	var ac AirportCharts
	for _, chart := range charts {
		switch chart.Type.Category {
		case CategoryArrival:
			ac.Arrival = append(ac.Arrival, chart)
		case CategoryDeparture:
			ac.Departure = append(ac.Departure, chart)
		case CategoryAirport:
			ac.Airport = append(ac.Airport, chart)
		case CategoryApproach:
			ac.Approach = append(ac.Approach, chart)
		}
	}
	return ac
}
