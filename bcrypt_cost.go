//go:build !race

package crmauth

func passwordHashCost() int {
	return 14
}
