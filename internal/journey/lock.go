package journey

import (
	"sync"
	"time"
)

// keyedMutex serializes journey mutations per (patient, day). The store has
// no optimistic concurrency token, so two stations completing different
// steps for the same patient at the same time would otherwise race on the
// read-modify-write and one update could be lost.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for the patient's current-day key and returns the
// unlock function.
func (k *keyedMutex) Lock(patientID string) func() {
	key := patientID + "|" + startOfDay(time.Now()).Format("2006-01-02")
	m := k.get(key)
	m.Lock()
	return m.Unlock
}
