// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
package xunsafe

import "sync"

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by holding a zero-length array of [sync.Mutex], which go
// vet's copylocks check treats as a lock.
type NoCopy [0]sync.Mutex
