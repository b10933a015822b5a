// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"reflect"
	"testing"

	"github.com/danielhkuo/gatherfun/models"
)

func TestRankLikes(t *testing.T) {
	names := map[string]string{"A": "Alpha", "B": "Bravo", "C": "Charlie"}

	tests := []struct {
		name  string
		votes map[string][]string
		want  []models.RankEntry
	}{
		{
			name:  "no votes",
			votes: map[string][]string{},
			want:  []models.RankEntry{},
		},
		{
			name: "count descending",
			votes: map[string][]string{
				"u1": {"A", "B"},
				"u2": {"B"},
				"u3": {"B", "C"},
			},
			want: []models.RankEntry{
				{CandidateID: "B", Name: "Bravo", Votes: 3},
				{CandidateID: "A", Name: "Alpha", Votes: 1},
				{CandidateID: "C", Name: "Charlie", Votes: 1},
			},
		},
		{
			name: "ties broken by candidate id",
			votes: map[string][]string{
				"u1": {"C"},
				"u2": {"A"},
				"u3": {"B"},
			},
			want: []models.RankEntry{
				{CandidateID: "A", Name: "Alpha", Votes: 1},
				{CandidateID: "B", Name: "Bravo", Votes: 1},
				{CandidateID: "C", Name: "Charlie", Votes: 1},
			},
		},
		{
			name: "duplicate likes count once",
			votes: map[string][]string{
				"u1": {"A", "A", "A"},
				"u2": {"B"},
				"u3": {"B"},
			},
			want: []models.RankEntry{
				{CandidateID: "B", Name: "Bravo", Votes: 2},
				{CandidateID: "A", Name: "Alpha", Votes: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankLikes(tt.votes, names)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RankLikes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRankLikesUnknownNameFallsBackToID(t *testing.T) {
	got := RankLikes(map[string][]string{"u1": {"zz"}}, nil)
	if len(got) != 1 || got[0].Name != "zz" {
		t.Errorf("unexpected ranking: %+v", got)
	}
}

func TestRankChoices(t *testing.T) {
	got := RankChoices(map[string]string{"u1": "A", "u2": "B", "u3": "A"}, nil)

	top, ok := Top(got)
	if !ok {
		t.Fatal("expected a top entry")
	}
	if top.CandidateID != "A" || top.Votes != 2 {
		t.Errorf("top = %+v, want A with 2 votes", top)
	}
}

func TestTopEmpty(t *testing.T) {
	if _, ok := Top(nil); ok {
		t.Error("Top(nil) should report no entry")
	}
}

func TestPlurality(t *testing.T) {
	tests := []struct {
		name   string
		values map[string][]string
		want   string
		wantOK bool
	}{
		{"empty", map[string][]string{}, "", false},
		{"clear winner", map[string][]string{
			"u1": {"2026-10-20", "2026-10-21"},
			"u2": {"2026-10-21"},
		}, "2026-10-21", true},
		{"tie goes to smallest", map[string][]string{
			"u1": {"Night"},
			"u2": {"Evening"},
		}, "Evening", true},
		{"repeats within one list count once", map[string][]string{
			"u1": {"Morning", "Morning", "Morning"},
			"u2": {"Afternoon"},
			"u3": {"Afternoon"},
		}, "Afternoon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Plurality(tt.values)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Plurality() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
