// Package memscan finds byte patterns in the virtual memory of a process.
//
// Scanner walks a foreign address space through a process.MemorySource in
// bounded chunks, carrying the tail of each chunk forward so matches that
// straddle a chunk boundary are still found. SelfScanner searches the
// calling process's own memory with a pool of goroutines and recovers from
// access faults page by page.
package memscan
