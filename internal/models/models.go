package models

import "time"

// Size is the adoption listing size bucket
type Size string

const (
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

// Gender of a listed dog
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Dog is the read-only listing shape served to the front-end
// Rescue is never empty: it falls back to the row's inline rescue name
type Dog struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Breed         string  `json:"breed"`
	Age           string  `json:"age"`
	Size          Size    `json:"size"`
	Gender        Gender  `json:"gender"`
	Location      string  `json:"location"`
	Rescue        string  `json:"rescue"`
	RescueWebsite *string `json:"rescueWebsite,omitempty"`
	Image         string  `json:"image"`
	GoodWithKids  bool    `json:"goodWithKids"`
	GoodWithDogs  bool    `json:"goodWithDogs"`
	GoodWithCats  bool    `json:"goodWithCats"`
	Description   string  `json:"description"`
}

// DogRow is a raw dogs row as the datastore returns it, with the related
// rescue nested under Rescues when the join found one
type DogRow struct {
	ID           string     `json:"id" validate:"required"`
	Name         string     `json:"name" validate:"required"`
	Breed        string     `json:"breed"`
	Age          string     `json:"age"`
	Size         string     `json:"size" validate:"oneof=Small Medium Large"`
	Gender       string     `json:"gender" validate:"oneof=Male Female"`
	Location     string     `json:"location"`
	Rescue       string     `json:"rescue"`
	RescueID     *string    `json:"rescue_id"`
	Image        string     `json:"image"`
	Description  string     `json:"description"`
	GoodWithKids bool       `json:"good_with_kids"`
	GoodWithDogs bool       `json:"good_with_dogs"`
	GoodWithCats bool       `json:"good_with_cats"`
	CreatedAt    time.Time  `json:"created_at"`
	Rescues      *RescueRef `json:"rescues" validate:"omitempty"`
}

// RescueRef is the projection of a rescue joined onto a dog row
type RescueRef struct {
	ID      string  `json:"id" validate:"required"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Website *string `json:"website"`
}

// Rescue is a rescue organisation listing
type Rescue struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Region  string  `json:"region"`
	Website *string `json:"website"`
}

// IPLocation is the approximate position of an IP address
// Backs the server-side geolocation capability
type IPLocation struct {
	IP        string  `json:"-"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}
