package models

// ReportRow is one sector of the visitation report. MissedDate is nil when
// the sector has no missed visit in range; a sector missed on several days
// appears once per day.
type ReportRow struct {
	StaffID    string `db:"staff_id" json:"staffId"`
	StaffName  string `db:"staff_name" json:"staffName"`
	Shift      Shift  `db:"shift" json:"shift"`
	SectorID   string `db:"sector_id" json:"sectorId"`
	SectorName string `db:"sector_name" json:"sectorName"`
	MissedDate *Date  `db:"missed_date" json:"missedDate"`
}

// Tally holds visited/missed counts for a group of report rows.
type Tally struct {
	TotalSectors   int `json:"totalSectors"`
	MissedCount    int `json:"missedCount"`
	VisitedCount   int `json:"visitedCount"`
	VisitedPercent int `json:"visitedPercent"`
}

// StaffTally is the subtotal of one staff member.
type StaffTally struct {
	StaffID   string `json:"staffId"`
	StaffName string `json:"staffName"`
	Shift     Shift  `json:"shift"`
	Tally
}

// ShiftTally is the subtotal of one shift.
type ShiftTally struct {
	Shift Shift `json:"shift"`
	Tally
}

// ReportSummary aggregates a report range.
type ReportSummary struct {
	StartDate Date         `json:"startDate"`
	EndDate   Date         `json:"endDate"`
	Totals    Tally        `json:"totals"`
	ByStaff   []StaffTally `json:"byStaff"`
	ByShift   []ShiftTally `json:"byShift"`
}
