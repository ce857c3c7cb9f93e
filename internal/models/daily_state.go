package models

// DailyState is the roster of one day: visible staff, their sectors and the
// sectors marked as missed.
type DailyState struct {
	Date    Date     `json:"date"`
	Shift   Shift    `json:"shift,omitempty"`
	Staff   []Staff  `json:"staff"`
	Sectors []Sector `json:"sectors"`
	Missed  []string `json:"missed"`
	Summary Tally    `json:"summary"`
}
