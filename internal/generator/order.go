package generator

import "github.com/SecretPocketCat/chela/internal/images"

// Order returns the scheduling order of a batch: the last job first, then the
// remaining jobs in their original order.
func Order(jobs []images.Job) []images.Job {
	if len(jobs) < 2 {
		return jobs
	}
	ordered := make([]images.Job, 0, len(jobs))
	ordered = append(ordered, jobs[len(jobs)-1])
	ordered = append(ordered, jobs[:len(jobs)-1]...)
	return ordered
}
