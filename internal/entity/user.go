package entity

import (
	"fmt"
	"strings"
)

// Role is compared case-insensitively everywhere.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

func ParseRole(s string) (Role, error) {
	switch {
	case strings.EqualFold(s, string(RoleAdmin)):
		return RoleAdmin, nil
	case strings.EqualFold(s, string(RoleCustomer)):
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidEntity, s)
}

func (r Role) Matches(other Role) bool {
	return r != "" && strings.EqualFold(string(r), string(other))
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"userType"`
	CreatedAt Timestamp `json:"createdAt"`
}

type Address struct {
	ID         int       `json:"addressId"`
	UserID     int       `json:"userId"`
	Type       string    `json:"addressType,omitempty"`
	Street     string    `json:"streetAddress"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Default    bool      `json:"isDefault"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// CheckSingleDefault rejects address lists where more than one entry is the default.
func CheckSingleDefault(addresses []Address) error {
	defaults := 0
	for _, a := range addresses {
		if a.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%w: %d default addresses", ErrInvalidEntity, defaults)
	}
	return nil
}

type Review struct {
	ID           int       `json:"reviewId"`
	UserID       int       `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	ProductID    int       `json:"productId"`
	ProductName  string    `json:"productName,omitempty"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	HelpfulCount int       `json:"helpfulCount"`
	CreatedAt    Timestamp `json:"createdAt"`
}

func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: rating %d outside 1-5", ErrInvalidEntity, r.Rating)
	}
	return nil
}
