package pyjamaz

// selectCandidate applies the constraint filter, then ranks, then
// tie-breaks across every candidate produced for one image (spec.md §4.6).
//
// Ranking rule: among candidates that satisfy both the byte budget and the
// quality gate, the smallest file wins — it represents the most savings
// without giving up anything the job asked to protect. Ties in FileSize
// break by format preference (AVIF > WebP > JPEG > PNG). If nothing
// satisfies both constraints, the winner is None: per spec.md §4.6, a
// result that isn't deep-copied from an actually-passing candidate must
// never be handed back as Selected.
func selectCandidate(candidates []Candidate) (*Candidate, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	var passing []Candidate
	for _, c := range candidates {
		if c.PassedConstraint {
			passing = append(passing, c)
		}
	}

	if len(passing) == 0 {
		return nil, false
	}

	best := &passing[0]
	for i := 1; i < len(passing); i++ {
		c := &passing[i]
		if c.FileSize < best.FileSize ||
			(c.FileSize == best.FileSize && c.Format.preference() > best.Format.preference()) {
			best = c
		}
	}
	return best.clone(), true
}

// injectBaseline adds the original, untouched source file as a candidate —
// the safety net that guarantees a Job never produces something worse than
// doing nothing. It always "passes" the byte budget check only if it is
// itself within budget; its diff score against itself is always 0.
func injectBaseline(originalData []byte, format Format, job Job) Candidate {
	c := Candidate{
		Format:           format,
		Data:             originalData,
		FileSize:         int64(len(originalData)),
		Quality:          100,
		DiffScore:        0,
		EncodingTime:     0,
	}
	c.PassedConstraint = candidatePasses(&c, job)
	return c
}
