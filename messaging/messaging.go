// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package messaging

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/gatherfun/models"
)

// ShareLink is the link participants open to join a session.
func ShareLink(baseURL, sessionID string) string {
	return strings.TrimRight(baseURL, "?") + "?id=" + url.QueryEscape(sessionID)
}

// KindFor picks the share message that fits the session's phase.
func KindFor(status models.Status) string {
	switch status {
	case models.StatusRecruiting:
		return models.MessageWaiting
	case models.StatusSwiping, models.StatusTieBreak:
		return models.MessageVoting
	case models.StatusFinished:
		return models.MessageResult
	}
	return ""
}

// Message renders the share text for kind. Unknown kinds get a generic invite.
func Message(kind string, s *models.Session, baseURL string, now time.Time) string {
	link := ShareLink(baseURL, s.ID)

	switch kind {
	case models.MessageWaiting:
		return fmt.Sprintf("Join our gathering %q! The fate is being decided soon. View here: %s", s.Name, link)

	case models.MessageVoting:
		msg := fmt.Sprintf("Hey! Please finish swiping your restaurant preferences for %q. Time is running out!", s.Name)
		if !s.WaitDeadline.IsZero() && s.WaitDeadline.After(now) {
			msg += " Voting closes " + humanize.RelTime(s.WaitDeadline, now, "ago", "from now") + "."
		}
		return msg + " " + link

	case models.MessageResult:
		name := "a restaurant"
		if s.FinalChoice != nil && s.FinalChoice.Name != "" {
			name = s.FinalChoice.Name
		}
		date := s.FinalDate
		if date == "" {
			date = s.StartDate
		}
		tod := s.FinalTime
		if tod == "" {
			tod = "TBD"
		}
		return fmt.Sprintf("We have a winner for %q!\n\nWinner: %s\nDate: %s\nTime: %s\nCheck details: %s",
			s.Name, name, date, tod, link)
	}

	return fmt.Sprintf("Check out our gathering %q: %s", s.Name, link)
}

func WhatsAppLink(message string) string {
	return "https://wa.me/?text=" + encodeComponent(message)
}

func LineLink(message string) string {
	return "https://line.me/R/msg/text/?" + encodeComponent(message)
}

// MapsLink prefers the provider's link and otherwise builds a search link.
func MapsLink(c models.Candidate) string {
	if c.MapsURL != "" {
		return c.MapsURL
	}
	return "https://www.google.com/maps/search/?api=1&query=" + encodeComponent(c.Name+" "+c.Address)
}

// periodStart is the UTC start hour used for calendar entries.
var periodStart = map[string]int{
	models.PeriodMorning:   9,
	models.PeriodAfternoon: 13,
	models.PeriodEvening:   18,
	models.PeriodNight:     21,
}

// CalendarLink builds a Google Calendar template for the finished session. It
// returns "" until a winner exists.
func CalendarLink(s *models.Session) string {
	if s.FinalChoice == nil {
		return ""
	}
	c := *s.FinalChoice

	date := s.FinalDate
	if date == "" {
		date = s.StartDate
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ""
	}
	hour, ok := periodStart[s.FinalTime]
	if !ok {
		hour = 12
	}
	start := day.Add(time.Duration(hour) * time.Hour)
	end := start.Add(2 * time.Hour)
	const stamp = "20060102T150405Z"

	details := fmt.Sprintf("Restaurant: %s\nAddress: %s\nMap: %s", c.Name, c.Address, MapsLink(c))

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", "Gathering: "+s.Name)
	q.Set("details", details)
	q.Set("location", c.Address)
	q.Set("dates", start.Format(stamp)+"/"+end.Format(stamp))
	return "https://www.google.com/calendar/render?" + q.Encode()
}

// encodeComponent escapes s like a URI component, with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
