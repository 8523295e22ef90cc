//go:build !race

package accounts

// passwordHashCost is the work factor for stored password hashes.
func passwordHashCost() int {
	return 10
}
