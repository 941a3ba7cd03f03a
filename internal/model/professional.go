package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FULL_TIME"
	EmploymentPartTime   EmploymentType = "PART_TIME"
	EmploymentContractor EmploymentType = "CONTRACTOR"
	EmploymentFreelance  EmploymentType = "FREELANCE"
)

type Certification struct {
	Name      string     `json:"name" binding:"required,max=200"`
	Issuer    string     `json:"issuer" binding:"max=200"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Certifications []Certification

func (c Certifications) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return jsonValue(c)
}

func (c *Certifications) Scan(src interface{}) error {
	return jsonScan(src, c)
}

type Professional struct {
	Base
	ClinicID       uuid.UUID      `db:"clinic_id" json:"clinic_id"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	FirstName      string         `db:"first_name" json:"first_name"`
	LastName       string         `db:"last_name" json:"last_name"`
	Title          string         `db:"title" json:"title"`
	LicenseNumber  *string        `db:"license_number" json:"license_number,omitempty"`
	Specialties    pq.StringArray `db:"specialties" json:"specialties"`
	Certifications Certifications `db:"certifications" json:"certifications"`
	EmploymentType EmploymentType `db:"employment_type" json:"employment_type"`
	IsMedicalStaff bool           `db:"is_medical_staff" json:"is_medical_staff"`
	Rating         float64        `db:"rating" json:"rating"`
	IsActive       bool           `db:"is_active" json:"is_active"`
}

type CreateProfessionalRequest struct {
	Email          string          `json:"email" binding:"required,email"`
	Password       string          `json:"password" binding:"required,min=8"`
	FirstName      string          `json:"first_name" binding:"required,max=100"`
	LastName       string          `json:"last_name" binding:"max=100"`
	Title          string          `json:"title" binding:"max=100"`
	LicenseNumber  *string         `json:"license_number" binding:"omitempty,max=100"`
	Specialties    []string        `json:"specialties" binding:"omitempty,max=20,dive,max=100"`
	Certifications []Certification `json:"certifications" binding:"omitempty,max=50,dive"`
	EmploymentType EmploymentType  `json:"employment_type" binding:"required,oneof=FULL_TIME PART_TIME CONTRACTOR FREELANCE"`
	IsMedicalStaff bool            `json:"is_medical_staff"`
}

type UpdateProfessionalRequest struct {
	FirstName      *string         `json:"first_name" binding:"omitempty,max=100"`
	LastName       *string         `json:"last_name" binding:"omitempty,max=100"`
	Title          *string         `json:"title" binding:"omitempty,max=100"`
	LicenseNumber  *string         `json:"license_number" binding:"omitempty,max=100"`
	Specialties    []string        `json:"specialties" binding:"omitempty,max=20,dive,max=100"`
	Certifications []Certification `json:"certifications" binding:"omitempty,max=50,dive"`
	EmploymentType *EmploymentType `json:"employment_type" binding:"omitempty,oneof=FULL_TIME PART_TIME CONTRACTOR FREELANCE"`
	IsMedicalStaff *bool           `json:"is_medical_staff"`
	Rating         *float64        `json:"rating" binding:"omitempty,gte=0,lte=5"`
	IsActive       *bool           `json:"is_active"`
}
