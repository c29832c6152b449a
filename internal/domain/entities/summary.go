package entities

// Summary is the fixed-shape structured record produced by the summarization
// service. When the detected language is not English a fully translated copy
// replaces it before persistence; only the final variant is written to disk.
type Summary struct {
	DoctorSummary     string   `json:"doctor_summary"`
	Symptoms          []string `json:"symptoms"`
	PatientHistory    []string `json:"patient_history"`
	RiskFactors       []string `json:"risk_factors"`
	Prescription      []string `json:"prescription"`
	Advice            []string `json:"advice"`
	RecommendedAction string   `json:"recommended_action"`
}

// EnsureLists initializes nil list fields so the persisted JSON always
// carries arrays. List fields can legitimately be empty for short
// consultations.
func (s *Summary) EnsureLists() {
	if s.Symptoms == nil {
		s.Symptoms = make([]string, 0)
	}
	if s.PatientHistory == nil {
		s.PatientHistory = make([]string, 0)
	}
	if s.RiskFactors == nil {
		s.RiskFactors = make([]string, 0)
	}
	if s.Prescription == nil {
		s.Prescription = make([]string, 0)
	}
	if s.Advice == nil {
		s.Advice = make([]string, 0)
	}
}
