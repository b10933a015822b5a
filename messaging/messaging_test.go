// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package messaging

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/gatherfun/models"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func session() *models.Session {
	return &models.Session{
		ID:        "abc-123",
		Name:      "Team Lunch",
		StartDate: "2026-10-20",
		Status:    models.StatusRecruiting,
	}
}

func TestShareLink(t *testing.T) {
	if got := ShareLink("https://gather.fun/", "abc-123"); got != "https://gather.fun/?id=abc-123" {
		t.Errorf("ShareLink() = %q", got)
	}
}

func TestKindFor(t *testing.T) {
	tests := map[models.Status]string{
		models.StatusRecruiting: models.MessageWaiting,
		models.StatusSwiping:    models.MessageVoting,
		models.StatusTieBreak:   models.MessageVoting,
		models.StatusFinished:   models.MessageResult,
	}
	for status, want := range tests {
		if got := KindFor(status); got != want {
			t.Errorf("KindFor(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestMessage(t *testing.T) {
	s := session()
	link := "https://gather.fun/?id=abc-123"

	waiting := Message(models.MessageWaiting, s, "https://gather.fun/", now)
	if !strings.Contains(waiting, `"Team Lunch"`) || !strings.HasSuffix(waiting, link) {
		t.Errorf("waiting message = %q", waiting)
	}

	s.WaitDeadline = now.Add(3 * time.Minute)
	voting := Message(models.MessageVoting, s, "https://gather.fun/", now)
	if !strings.Contains(voting, "3 minutes from now") {
		t.Errorf("voting message missing countdown: %q", voting)
	}

	result := Message(models.MessageResult, s, "https://gather.fun/", now)
	for _, want := range []string{"Winner: a restaurant", "Date: 2026-10-20", "Time: TBD"} {
		if !strings.Contains(result, want) {
			t.Errorf("result message missing %q: %q", want, result)
		}
	}

	s.FinalChoice = &models.Candidate{Name: "Tasty Taiwan"}
	s.FinalDate = "2026-10-21"
	s.FinalTime = models.PeriodEvening
	result = Message(models.MessageResult, s, "https://gather.fun/", now)
	for _, want := range []string{"Winner: Tasty Taiwan", "Date: 2026-10-21", "Time: Evening"} {
		if !strings.Contains(result, want) {
			t.Errorf("result message missing %q: %q", want, result)
		}
	}

	if got := Message("other", s, "https://gather.fun/", now); !strings.HasPrefix(got, "Check out our gathering") {
		t.Errorf("default message = %q", got)
	}
}

func TestShareLinksEscapeMessage(t *testing.T) {
	msg := "Lunch & dinner?"
	if got := WhatsAppLink(msg); got != "https://wa.me/?text=Lunch%20%26%20dinner%3F" {
		t.Errorf("WhatsAppLink() = %q", got)
	}
	if got := LineLink(msg); got != "https://line.me/R/msg/text/?Lunch%20%26%20dinner%3F" {
		t.Errorf("LineLink() = %q", got)
	}
}

func TestMapsLink(t *testing.T) {
	c := models.Candidate{Name: "Malay Feast", Address: "Bukit Bintang"}
	if got := MapsLink(c); got != "https://www.google.com/maps/search/?api=1&query=Malay%20Feast%20Bukit%20Bintang" {
		t.Errorf("MapsLink() = %q", got)
	}
	c.MapsURL = "https://maps.example/x"
	if got := MapsLink(c); got != c.MapsURL {
		t.Errorf("MapsLink() ignored provider link: %q", got)
	}
}

func TestCalendarLink(t *testing.T) {
	s := session()
	if CalendarLink(s) != "" {
		t.Fatal("calendar link before a winner")
	}

	s.FinalChoice = &models.Candidate{Name: "Tasty Taiwan", Address: "Xinyi"}
	s.FinalDate = "2026-10-21"
	s.FinalTime = models.PeriodEvening

	u, err := url.Parse(CalendarLink(s))
	if err != nil {
		t.Fatalf("invalid link: %v", err)
	}
	q := u.Query()
	if q.Get("dates") != "20261021T180000Z/20261021T200000Z" {
		t.Errorf("dates = %q", q.Get("dates"))
	}
	if q.Get("text") != "Gathering: Team Lunch" || q.Get("location") != "Xinyi" {
		t.Errorf("unexpected query: %v", q)
	}

	s.FinalTime = ""
	q, _ = url.ParseQuery(strings.SplitN(CalendarLink(s), "?", 2)[1])
	if q.Get("dates") != "20261021T120000Z/20261021T140000Z" {
		t.Errorf("TBD time should default to noon, got %q", q.Get("dates"))
	}
}
