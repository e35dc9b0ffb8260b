package services

import (
	"container/heap"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// queuedJob orders jobs by priority, then by submission sequence.
type queuedJob struct {
	job domain.Job
	seq uint64
}

// jobQueue is a min-heap of pending jobs.
type jobQueue []*queuedJob

var _ heap.Interface = (*jobQueue)(nil)

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].job.Priority != q[j].job.Priority {
		return q[i].job.Priority < q[j].job.Priority
	}
	return q[i].seq < q[j].seq
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(*queuedJob)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
