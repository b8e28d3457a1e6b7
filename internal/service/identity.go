package service

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

type Identity struct {
	FirstName string
	LastName  string
	FullName  string
	Password  string
}

// Curated gendered first names; gofakeit only exposes ungendered ones.
var (
	femaleNames = []string{
		"Emma", "Olivia", "Ava", "Sophia", "Isabella", "Mia", "Charlotte",
		"Amelia", "Harper", "Evelyn", "Abigail", "Emily", "Elizabeth",
		"Sofia", "Madison", "Avery", "Ella", "Scarlett", "Grace", "Chloe",
	}
	maleNames = []string{
		"Liam", "Noah", "William", "James", "Oliver", "Benjamin", "Elijah",
		"Lucas", "Mason", "Logan", "Alexander", "Ethan", "Jacob", "Michael",
		"Daniel", "Henry", "Jackson", "Sebastian", "Aiden", "Matthew",
	}
)

// GenerateIdentity builds a realistic name and password honoring the
// configured gender preference ("female", "male" or "both").
func GenerateIdentity(genderPreference string) Identity {
	var first string
	switch genderPreference {
	case "female":
		first = femaleNames[gofakeit.Number(0, len(femaleNames)-1)]
	case "male":
		first = maleNames[gofakeit.Number(0, len(maleNames)-1)]
	default:
		first = gofakeit.FirstName()
	}
	last := gofakeit.LastName()

	return Identity{
		FirstName: first,
		LastName:  last,
		FullName:  fmt.Sprintf("%s %s", first, last),
		Password:  gofakeit.Password(true, true, true, true, false, 12),
	}
}
