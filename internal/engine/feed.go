package engine

// userBucket pairs a user with their finished streams in per-user order
// (most recent first, as delivered by the store).
type userBucket struct {
	userID  UserID
	streams []Stream
}

// partitionByUser groups streams into one bucket per candidate user,
// preserving both the candidate ranking and each user's per-user ordering.
// Users with no streams get no bucket. The grouping lives only for the
// duration of one interleave call.
func partitionByUser(users []UserRef, streams []Stream) []userBucket {
	index := make(map[UserID]int, len(users))
	buckets := make([]userBucket, 0, len(users))
	for _, u := range users {
		index[u.ID] = len(buckets)
		buckets = append(buckets, userBucket{userID: u.ID})
	}
	for _, st := range streams {
		i, ok := index[st.UserID]
		if !ok {
			continue
		}
		buckets[i].streams = append(buckets[i].streams, st)
	}
	return buckets
}

// Interleave merges the candidate users' stream lists round-robin: every
// user contributes their i-th stream before any user contributes their
// (i+1)-th. The result never exceeds amount and stops early once a full
// round adds nothing (all lists exhausted). An empty candidate set or a
// non-positive amount yields an empty result, never an error.
func Interleave(users []UserRef, streams []Stream, amount int) []Stream {
	if amount <= 0 || len(users) == 0 {
		return []Stream{}
	}

	buckets := partitionByUser(users, streams)
	result := make([]Stream, 0, amount)

	for round := 0; ; round++ {
		added := false
		for _, b := range buckets {
			if round >= len(b.streams) {
				continue
			}
			result = append(result, b.streams[round])
			added = true
			if len(result) >= amount {
				return result
			}
		}
		if !added {
			return result
		}
	}
}
