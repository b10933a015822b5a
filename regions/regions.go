// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package regions

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCountry  = errors.New("unknown country")
	ErrUnknownLocation = errors.New("location not offered in country")
)

type City struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

type Country struct {
	Name   string `json:"name"`
	Cities []City `json:"cities"`
}

// Locations lists every "<city> - <district>" label in catalog order.
func (c Country) Locations() []string {
	var out []string
	for _, city := range c.Cities {
		for _, d := range city.Districts {
			out = append(out, Label(city.Name, d))
		}
	}
	return out
}

func (c Country) Has(location string) bool {
	for _, city := range c.Cities {
		for _, d := range city.Districts {
			if Label(city.Name, d) == location {
				return true
			}
		}
	}
	return false
}

// Label joins a city and district into a location string.
func Label(city, district string) string {
	return city + " - " + district
}

// Catalog is an ordered, read-only list of countries.
type Catalog struct {
	countries []Country
}

func New(countries ...Country) *Catalog {
	return &Catalog{countries: countries}
}

// Countries returns the catalog in display order.
func (c *Catalog) Countries() []Country {
	return append([]Country{}, c.countries...)
}

func (c *Catalog) Lookup(name string) (Country, bool) {
	for _, country := range c.countries {
		if country.Name == name {
			return country, true
		}
	}
	return Country{}, false
}

// Validate checks that every location belongs to country.
func (c *Catalog) Validate(country string, locations []string) error {
	entry, ok := c.Lookup(country)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	for _, l := range locations {
		if !entry.Has(l) {
			return fmt.Errorf("%w: %q in %s", ErrUnknownLocation, l, country)
		}
	}
	return nil
}

// Default is the built-in catalog of supported regions.
func Default() *Catalog {
	return New(
		Country{Name: "Taiwan", Cities: []City{
			{Name: "台北市 (Taipei)", Districts: []string{"信義區", "大安區", "中山區", "萬華區"}},
			{Name: "新北市 (New Taipei)", Districts: []string{"板橋區", "三重區", "中和區", "永和區"}},
			{Name: "台中市 (Taichung)", Districts: []string{"西屯區", "北屯區", "南屯區"}},
			{Name: "高雄市 (Kaohsiung)", Districts: []string{"左營區", "三民區", "苓雅區"}},
		}},
		Country{Name: "Malaysia", Cities: []City{
			{Name: "Kuala Lumpur", Districts: []string{"Bukit Bintang", "KLCC", "Bangsar", "Cheras"}},
			{Name: "Selangor", Districts: []string{"Petaling Jaya", "Subang Jaya", "Shah Alam", "Klang"}},
			{Name: "Penang", Districts: []string{"George Town", "Bayan Lepas", "Butterworth"}},
			{Name: "Johor", Districts: []string{"Johor Bahru", "Skudai", "Mount Austin"}},
		}},
	)
}
