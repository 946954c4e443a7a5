package models

import "time"

type VisitPurpose string

const (
	PurposeGeneralPractice    VisitPurpose = "General Practice"
	PurposeOccupationalHealth VisitPurpose = "Occupational Health"
)

var VisitPurposes = []VisitPurpose{PurposeGeneralPractice, PurposeOccupationalHealth}

type RecencyBucket string

const (
	RecencyUnderMonth  RecencyBucket = "Less than a month"
	RecencyOneToSix    RecencyBucket = "1-6 months"
	RecencySixToTwelve RecencyBucket = "6-12 months"
	RecencyOverYear    RecencyBucket = "Over a year"
)

var RecencyBuckets = []RecencyBucket{RecencyUnderMonth, RecencyOneToSix, RecencySixToTwelve, RecencyOverYear}

type PatientType string

const (
	PatientNew       PatientType = "New"
	PatientReturning PatientType = "Returning"
)

var PatientTypes = []PatientType{PatientNew, PatientReturning}

// UserTypes are always reported, even with zero submissions.
var UserTypes = []string{"Patient", "Family Member", "Caregiver", "Visitor", "Staff"}

type LocationType string

const (
	LocationDepartment         LocationType = "department"
	LocationWard               LocationType = "ward"
	LocationCanteen            LocationType = "canteen"
	LocationOccupationalHealth LocationType = "occupational_health"
)

type RatingCategory string

const (
	RatingReception             RatingCategory = "reception"
	RatingProfessionalism       RatingCategory = "professionalism"
	RatingUnderstanding         RatingCategory = "understanding"
	RatingPromptnessCare        RatingCategory = "promptness_care"
	RatingPromptnessFeedback    RatingCategory = "promptness_feedback"
	RatingOverall               RatingCategory = "overall"
	RatingAdmission             RatingCategory = "admission"
	RatingNurseProfessionalism  RatingCategory = "nurse_professionalism"
	RatingDoctorProfessionalism RatingCategory = "doctor_professionalism"
	RatingFoodQuality           RatingCategory = "food_quality"
	RatingDischarge             RatingCategory = "discharge"
)

// RatingCategories is also the column order of the ratings table.
var RatingCategories = []RatingCategory{
	RatingReception,
	RatingProfessionalism,
	RatingUnderstanding,
	RatingPromptnessCare,
	RatingPromptnessFeedback,
	RatingOverall,
	RatingAdmission,
	RatingNurseProfessionalism,
	RatingDoctorProfessionalism,
	RatingFoodQuality,
	RatingDischarge,
}

type ObservationCategory string

const (
	ObservationCleanliness ObservationCategory = "cleanliness"
	ObservationFacilities  ObservationCategory = "facilities"
	ObservationSecurity    ObservationCategory = "security"
	ObservationOverall     ObservationCategory = "overall"
)

var ObservationCategories = []ObservationCategory{ObservationCleanliness, ObservationFacilities, ObservationSecurity, ObservationOverall}

type Submission struct {
	ID           string        `json:"id"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	VisitPurpose VisitPurpose  `json:"visit_purpose"`
	Recency      RecencyBucket `json:"recency"`
	UserType     string        `json:"user_type"`
	PatientType  PatientType   `json:"patient_type"`

	// At most one of these is normally set by the collection flow; older
	// form versions used different fields.
	WouldRecommend     *bool    `json:"would_recommend,omitempty"`
	WouldRecommendText *string  `json:"would_recommend_text,omitempty"`
	Recommendation     RawValue `json:"recommendation"`
}

type Location struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type LocationType `json:"type"`
}

type Rating struct {
	ID           string                      `json:"id"`
	SubmissionID string                      `json:"submission_id"`
	LocationID   string                      `json:"location_id"`
	LocationName string                      `json:"location_name"`
	LocationType LocationType                `json:"location_type"`
	Values       map[RatingCategory]RawValue `json:"values"`
}

type Visit struct {
	SubmissionID string       `json:"submission_id"`
	LocationID   string       `json:"location_id"`
	LocationName string       `json:"location_name"`
	LocationType LocationType `json:"location_type"`
}

type Observation struct {
	ID           string                           `json:"id"`
	SubmissionID string                           `json:"submission_id"`
	Values       map[ObservationCategory]RawValue `json:"values"`
}

// SurveyInput is one completed survey as written by the collection endpoint.
type SurveyInput struct {
	Submission       Submission
	Ratings          []Rating
	VisitedLocations []string
	Observation      *Observation
}
