package domain

import "regexp"

// Cameroonian mobile numbers, with or without the +237 prefix.
var phonePattern = regexp.MustCompile(`^(\+237|6)[2356789][0-9]{7}$`)

func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
