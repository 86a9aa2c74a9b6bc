// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package balance implements the dynamic load balancer: per-ensemble load
// measurement, replica (de)allocation planning, and the detailed
// particle-count rebalance within an ensemble (spec.md §4.6).
package balance

import "container/heap"

// CalcNewNprocs plans the new per-ensemble replica counts, grounded on the
// priority-queue algorithm in the original implementation's
// calc_new_nprocs_impl: ensembles above target get replicas taken from the
// pool one at a time (richest first) until the pool is exhausted or no
// ensemble's average load still exceeds targetLoad; if the naive
// floor(load/avgLoad) allocation asks for more processes than exist,
// replicas are instead taken one at a time from the least-loaded ensemble,
// never dropping below 1.
func CalcNewNprocs(loads []float64, oldNproc []int, targetLoad float64) []int {
	nens := len(loads)
	if nens == 1 {
		return []int{oldNproc[0]}
	}

	totalLoad := 0.0
	totalProcs := 0
	for i := 0; i < nens; i++ {
		totalLoad += loads[i]
		totalProcs += oldNproc[i]
	}

	avgLeastPossible := totalLoad/float64(totalProcs) + 1
	if avgLeastPossible < targetLoad {
		avgLeastPossible = targetLoad
	}

	newNproc := make([]int, nens)
	totalSurplus := 0
	for i := 0; i < nens; i++ {
		totalSurplus += oldNproc[i]
		n := int(loads[i] / avgLeastPossible)
		if n < 1 {
			n = 1
		}
		newNproc[i] = n
		totalSurplus -= n
	}

	switch {
	case totalSurplus > 0:
		grantSurplus(newNproc, loads, totalSurplus, targetLoad)
	case totalSurplus < 0:
		reclaimDeficit(newNproc, loads, -totalSurplus)
	}
	return newNproc
}

// avgItem is one priority-queue entry: ensemble index and its current
// average load (load[i]/nproc[i]).
type avgItem struct {
	idx int
	avg float64
}

// maxHeap pops the highest average-load ensemble first (used to grant
// surplus processes to the most stressed ensemble).
type maxHeap []avgItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].avg > h[j].avg }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(avgItem)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// minHeap pops the lowest average-load ensemble first (used to reclaim
// processes from the least stressed ensemble).
type minHeap []avgItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].avg < h[j].avg }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(avgItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// grantSurplus repeatedly gives one process to the ensemble with the
// highest load/nproc ratio, provided that ratio still exceeds targetLoad.
func grantSurplus(nproc []int, loads []float64, count int, targetLoad float64) {
	pq := make(maxHeap, 0, len(nproc))
	for i := range nproc {
		pq = append(pq, avgItem{i, loads[i] / float64(nproc[i])})
	}
	heap.Init(&pq)

	for count > 0 && pq.Len() > 0 {
		top := pq[0]
		if top.avg <= targetLoad {
			heap.Pop(&pq)
			continue
		}
		heap.Pop(&pq)
		nproc[top.idx]++
		newAvg := loads[top.idx] / float64(nproc[top.idx])
		if newAvg > targetLoad {
			heap.Push(&pq, avgItem{top.idx, newAvg})
		}
		count--
	}
}

// reclaimDeficit repeatedly takes one process from the ensemble with the
// lowest load/nproc ratio, never dropping an ensemble below 1 process.
func reclaimDeficit(nproc []int, loads []float64, count int) {
	pq := make(minHeap, 0, len(nproc))
	for i := range nproc {
		pq = append(pq, avgItem{i, loads[i] / float64(nproc[i])})
	}
	heap.Init(&pq)

	for count > 0 && pq.Len() > 0 {
		top := heap.Pop(&pq).(avgItem)
		if nproc[top.idx] <= 1 {
			continue
		}
		nproc[top.idx]--
		heap.Push(&pq, avgItem{top.idx, loads[top.idx] / float64(nproc[top.idx])})
		count--
	}
}
