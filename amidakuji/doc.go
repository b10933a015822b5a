// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package amidakuji implements the ladder lottery used to break ties.

A board has N vertical lanes, each bound to a candidate. A rung at lane i joins
lanes i and i+1 at a normalized height in (0, 1). A player starts at the top of
a lane and walks down; every rung touching the current lane moves the player
across:

	lanes, _ := amidakuji.BuildLanes(ranking, pool, 5)
	rungs, _ := amidakuji.Generate(rng, amidakuji.DefaultOptions())
	end, _ := amidakuji.Resolve(rungs, len(lanes), start)
	winner := lanes[end]

Resolve is a pure function of its inputs, so every participant who sees the
same rungs gets the same mapping from start lane to candidate. Because each
rung swaps exactly two neighbouring lanes, the mapping is a permutation.
*/
package amidakuji
