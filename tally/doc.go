// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally aggregates votes into rankings.

Rankings are ordered by vote count descending and then by candidate ID
ascending, so two tallies over the same votes always agree:

	ranking := tally.RankLikes(sess.Votes, sess.CandidateNames())
	top, ok := tally.Top(ranking)

Plurality picks the most common date or time period across participants'
preferences, breaking ties toward the lexically smallest value.
*/
package tally
