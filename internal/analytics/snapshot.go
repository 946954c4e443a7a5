package analytics

import "github.com/survey_insights/backend/internal/models"

// Snapshot is the joined result of one round of sub-fetches. It must not be
// modified once built.
type Snapshot struct {
	Submissions  []models.Submission
	Ratings      []models.Rating
	Visits       []models.Visit
	Observations []models.Observation
	Locations    []models.Location

	ratingsBySubmission map[string][]models.Rating
	submissionsByID     map[string]models.Submission
	locationsByID       map[string]models.Location
}

func NewSnapshot(submissions []models.Submission, ratings []models.Rating, visits []models.Visit, observations []models.Observation, locations []models.Location) *Snapshot {
	s := &Snapshot{
		Submissions:         submissions,
		Ratings:             ratings,
		Visits:              visits,
		Observations:        observations,
		Locations:           locations,
		ratingsBySubmission: make(map[string][]models.Rating),
		submissionsByID:     make(map[string]models.Submission, len(submissions)),
		locationsByID:       make(map[string]models.Location, len(locations)),
	}
	for _, sub := range submissions {
		s.submissionsByID[sub.ID] = sub
	}
	for _, r := range ratings {
		s.ratingsBySubmission[r.SubmissionID] = append(s.ratingsBySubmission[r.SubmissionID], r)
	}
	for _, l := range locations {
		s.locationsByID[l.ID] = l
	}
	return s
}

// SubmissionRatings is the RatingExtractor used across the bundle: all
// categories of all rating records the submission left.
func (s *Snapshot) SubmissionRatings(sub models.Submission) []int {
	var out []int
	for _, r := range s.ratingsBySubmission[sub.ID] {
		out = append(out, NormalizeAll(r.Values, models.RatingCategories)...)
	}
	return out
}

func (s *Snapshot) submission(id string) (models.Submission, bool) {
	sub, ok := s.submissionsByID[id]
	return sub, ok
}

// locationName prefers the joined name on the row, then the location list.
func (s *Snapshot) locationName(id, joined string) string {
	if joined != "" {
		return joined
	}
	if l, ok := s.locationsByID[id]; ok && l.Name != "" {
		return l.Name
	}
	return id
}

func (s *Snapshot) locationType(id string, joined models.LocationType) models.LocationType {
	if joined != "" {
		return joined
	}
	return s.locationsByID[id].Type
}
