package models

// NoData stands in for a name when a group has nothing to report.
const NoData = "No data"

// AggregateBundle is built once per cache miss and never modified afterwards.
type AggregateBundle struct {
	Overview            Overview             `json:"overview"`
	Demographics        Demographics         `json:"demographics"`
	TimeOfDay           []GroupMetrics       `json:"time_of_day"`
	Recency             []RecencyMetrics     `json:"recency"`
	ImprovementAreas    []ImprovementArea    `json:"improvement_areas"`
	VisitPurposes       []ComparisonGroup    `json:"visit_purpose_comparison"`
	PatientTypes        []ComparisonGroup    `json:"patient_type_comparison"`
	UserTypes           []NameCount          `json:"user_type_distribution"`
	GeneralObservations []ObservationAverage `json:"general_observations"`
}

type Overview struct {
	TotalResponses      int            `json:"total_responses"`
	RecommendRate       int            `json:"recommend_rate"`
	AvgSatisfaction     float64        `json:"avg_satisfaction"`
	MostCommonPurpose   string         `json:"most_common_purpose"`
	PurposeDistribution []PurposeShare `json:"purpose_distribution"`
}

type PurposeShare struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type Demographics struct {
	UserTypes    []GroupMetrics `json:"user_types"`
	PatientTypes []GroupMetrics `json:"patient_types"`
}

type GroupMetrics struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	Satisfaction  float64 `json:"satisfaction"`
	RecommendRate int     `json:"recommend_rate"`
}

type RecencyMetrics struct {
	GroupMetrics
	FallbackApplied bool `json:"fallback_applied"`
}

type ImprovementArea struct {
	LocationID     string  `json:"location_id"`
	Area           string  `json:"area"`
	Satisfaction   float64 `json:"satisfaction"`
	VisitCount     int     `json:"visit_count"`
	Impact         float64 `json:"impact"`
	IsQuickWin     bool    `json:"is_quick_win"`
	IsCritical     bool    `json:"is_critical"`
	Recommendation string  `json:"recommendation"`
}

type ComparisonGroup struct {
	Name             string      `json:"name"`
	Count            int         `json:"count"`
	Satisfaction     float64     `json:"satisfaction"`
	RecommendRate    int         `json:"recommend_rate"`
	TopDepartment    string      `json:"top_department"`
	BottomDepartment string      `json:"bottom_department"`
	TopLocations     []NameCount `json:"top_locations"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ObservationAverage struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// NPSResult.Score is on the rescaled 0..100 presentation, not -100..100.
type NPSResult struct {
	Score      int `json:"score"`
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Total      int `json:"total"`
}
