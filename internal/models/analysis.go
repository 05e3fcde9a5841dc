package models

// WordCount is a single ranked entry of a word-frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// UnresolvedPlace is a place that could not be geocoded during a tolerant pass.
type UnresolvedPlace struct {
	Place   string `json:"place"`
	Records int    `json:"records"`
	Error   string `json:"error"`
}

// Summary holds participation counts for the filtered survey.
type Summary struct {
	Responses int `json:"responses"`
	Classes   int `json:"classes"`
	Teachers  int `json:"teachers"`
	MinYear   int `json:"min_year,omitempty"`
	MaxYear   int `json:"max_year,omitempty"`
}

// CacheSave reports the outcome of flushing the geocode cache at the end of a pass.
type CacheSave struct {
	Saved   bool   `json:"saved"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// Analysis is everything one pass produces for the presentation layer.
type Analysis struct {
	PassID     string                 `json:"pass_id"`
	Summary    Summary                `json:"summary"`
	Locations  []LocationAggregate    `json:"locations"`
	Unresolved []UnresolvedPlace      `json:"unresolved,omitempty"`
	Words      map[string][]WordCount `json:"words"`
	Responses  map[string][]string    `json:"responses"`
	CacheSave  CacheSave              `json:"cache_save"`
}

// RawData is the filtered survey table as read from the sheet.
type RawData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
