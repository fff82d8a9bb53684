package repository

import "time"

// RogueSummary сводная строка по постоянному участнику
type RogueSummary struct {
	Name           string     `json:"name"`
	RogueStartDate *time.Time `json:"rogue_start_date,omitempty"`
	RogueEndDate   *time.Time `json:"rogue_end_date,omitempty"`
	Correct        int        `json:"correct"`
	Incorrect      int        `json:"incorrect"`
}

// GuestSummary сводная строка по гостю
type GuestSummary struct {
	Name           string `json:"name"`
	NumAppearances int    `json:"num_appearances"`
	Correct        int    `json:"correct"`
	Incorrect      int    `json:"incorrect"`
}

// EpisodeSummary сводная строка по эпизоду: ведущий рубрики и итоги ответов
type EpisodeSummary struct {
	EpNum     int       `json:"ep_num"`
	Date      time.Time `json:"date"`
	NumItems  int       `json:"num_items"`
	Theme     *string   `json:"theme,omitempty"`
	Presenter *string   `json:"presenter,omitempty"`
	Sweep     *string   `json:"sweep,omitempty"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
}
