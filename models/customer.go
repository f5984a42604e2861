package models

type Customer struct {
	Id           uint   `json:"id" gorm:"primaryKey"`
	FirstName    string `json:"first_name" gorm:"not null"`
	LastName     string `json:"last_name" gorm:"not null"`
	Email        string `json:"email" gorm:"unique;not null"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Zip          string `json:"zip"`
	IDNumber     string `json:"id_number"`
	Active       bool   `json:"-"`
}
