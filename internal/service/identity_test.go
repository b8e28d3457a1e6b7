package service

import (
	"strings"
	"testing"
)

func TestGenerateIdentityGenderPreference(t *testing.T) {
	inList := func(name string, list []string) bool {
		for _, n := range list {
			if n == name {
				return true
			}
		}
		return false
	}

	for i := 0; i < 20; i++ {
		if id := GenerateIdentity("female"); !inList(id.FirstName, femaleNames) {
			t.Fatalf("first name = %q, not in the female set", id.FirstName)
		}
		if id := GenerateIdentity("male"); !inList(id.FirstName, maleNames) {
			t.Fatalf("first name = %q, not in the male set", id.FirstName)
		}
	}
}

func TestGenerateIdentityComplete(t *testing.T) {
	id := GenerateIdentity("both")

	if id.FirstName == "" || id.LastName == "" {
		t.Fatalf("incomplete identity: %+v", id)
	}
	if id.FullName != id.FirstName+" "+id.LastName {
		t.Errorf("full name = %q, want %q", id.FullName, id.FirstName+" "+id.LastName)
	}
	if len(id.Password) < 12 {
		t.Errorf("password = %q, want at least 12 characters", id.Password)
	}
	if strings.ContainsAny(id.Password, " ") {
		t.Errorf("password %q contains spaces", id.Password)
	}
}
