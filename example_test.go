package slotcache_test

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/slotcache"
	"github.com/unkn0wn-root/slotcache/codec"
	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/memory"
)

func Example() {
	env, err := host.New(host.Config{Backend: memory.New(nil)})
	if err != nil {
		panic(err)
	}

	alloc := slotcache.NewBumpAlloc(slotcache.Key{})
	balances, err := slotcache.NewSyncChunk(alloc, 16, slotcache.Options[uint64]{
		Host:  env,
		Codec: codec.MustCBOR[uint64](),
	})
	if err != nil {
		panic(err)
	}

	counters, err := env.Execute(context.Background(), balances, func() error {
		for i := 0; i < 3; i++ {
			v, _ := balances.Get(7)
			balances.Set(7, v+10)
		}
		return nil
	})
	fmt.Println(counters.Reads, counters.Writes, err)

	v, _ := balances.Get(7)
	fmt.Println(v)
	// Output:
	// 1 1 <nil>
	// 30
}

func ExampleSyncChunk_Take() {
	env, _ := host.New(host.Config{Backend: memory.New(nil)})
	alloc := slotcache.NewBumpAlloc(slotcache.Key{})
	cell, _ := slotcache.NewCell(alloc, slotcache.Options[string]{Host: env, Codec: codec.String{}})
	queue, _ := slotcache.NewSyncChunk(alloc, 4, slotcache.Options[string]{Host: env, Codec: codec.String{}})

	cell.Store("owner")
	queue.Set(0, "job-a")
	queue.Flush()

	job, ok := queue.Take(0)
	fmt.Println(job, ok)
	_, ok = queue.Get(0)
	fmt.Println(ok)
	// Output:
	// job-a true
	// false
}
