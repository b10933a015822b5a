// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package regions holds the catalog of countries, cities and districts a host
can pick session locations from.

# Locations

A location is written "<city> - <district>":

	regions.Label("Kuala Lumpur", "Bangsar") // "Kuala Lumpur - Bangsar"

# Validation

	cat := regions.Default()
	if err := cat.Validate("Malaysia", locations); err != nil {
		// unknown country or a location outside it
	}
*/
package regions
