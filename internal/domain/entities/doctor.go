package entities

// Doctor holds the letterhead metadata printed on a rendered report. Rows
// come from the external doctor directory; the pipeline only ever reads them.
type Doctor struct {
	ID           string `json:"id" gorm:"type:uuid;primary_key"`
	FullName     string `json:"full_name" gorm:"type:varchar(255);not null"`
	Degree       string `json:"degree" gorm:"type:varchar(255)"`
	ClinicName   string `json:"clinic_name" gorm:"type:varchar(255)"`
	MedicalID    string `json:"medical_id" gorm:"type:varchar(100)"`
	PhoneNumber  string `json:"phone_number" gorm:"type:varchar(50)"`
	WorkLocation string `json:"work_location" gorm:"type:varchar(255)"`
}

// TableName specifies the table name for GORM
func (Doctor) TableName() string {
	return "doctors"
}
