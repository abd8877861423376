//go:build race

package crmauth

import "golang.org/x/crypto/bcrypt"

// Race-instrumented builds pay a heavy CPU tax on bcrypt, so tests use the
// cheapest legal cost.
func passwordHashCost() int {
	return bcrypt.MinCost
}
