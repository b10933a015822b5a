// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists sessions and streams their changes.

# Implementations

  - Memory: map guarded by a mutex. Used in tests and with DATABASE_TYPE=memory.
  - SQL: one JSON document per row in gathering_session, on sqlite or postgres.

# Updates

All writes go through Update with a Mutator. The mutator sees the current
session and returns a models.Patch; the store merges it with Session.Apply and
bumps the version only if something changed:

	sess, err := st.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		if !cur.IsParticipant(pid) {
			return models.Patch{}, ErrNotParticipant
		}
		return models.Patch{Votes: map[string][]string{pid: liked}}, nil
	})

Memory serializes updates with its mutex. SQL runs each attempt in a
transaction guarded by "WHERE version = ?" and retries on conflict, so the
mutator may run more than once and must not have side effects.

# Subscriptions

Subscribe returns a channel that first yields the current session and then
every committed version. Delivery is latest-wins: a subscriber that falls
behind skips intermediate versions but always sees the newest.

# Multiple Processes

Bridge publishes {origin, id, version} on gatherfun.sessions.<id> via NATS
after every SQL write. Other processes reload the row and push it to their
own subscribers.
*/
package store
