// Package util provides concurrency helpers used by the socket runtime.
//
// Key Components:
//
//   - Mailbox: a lock-free, unbounded multi-producer single-consumer queue.
//     Any goroutine may Put values, a single consumer drains them in order
//     via the C() channel. Every socket runs its control loop on top of a
//     Mailbox of closures, so all socket state is touched by one goroutine only.
//
// Ordering: values put by the same goroutine are delivered in the order they
// were put. Values put concurrently by different goroutines are ordered by
// whichever producer links its node first.
package util
