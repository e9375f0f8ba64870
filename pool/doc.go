// Package pool provides a generational arena: an object pool with stable,
// reusable identity.
//
// Entries live in a dense slot array and are referenced by Handle values, a
// (slot index, generation) pair. Freeing a slot and reusing it bumps the
// slot's generation, so a handle held across a free resolves to "not found"
// instead of the new occupant. Use-after-free degrades to a safe miss; no
// pool operation panics on a stale handle.
//
//	p := pool.New[Enemy]()
//	h := p.Spawn(Enemy{HP: 100})
//	if e := p.Get(h); e != nil {
//	    e.HP -= 10
//	}
//	p.Free(h)
//	p.Get(h) // nil: the handle is stale forever
//
// # Concurrency
//
// A Pool performs no internal locking. Share one across goroutines only
// under external synchronization; unsynchronized Spawn/Free/Get are
// undefined by contract. Structural mutation (Spawn or Free) while an All()
// iteration is in flight is likewise a caller error — collect mutations and
// apply them after the loop.
package pool
