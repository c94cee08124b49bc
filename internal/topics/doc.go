// Package topics implements the topic registry: topic lifecycle, subscriber
// membership and broadcast fan-out.
//
// All mutations (Create, Delete, Subscribe, Unsubscribe, UnsubscribeAll) are
// executed one at a time by a single coordinator goroutine started with Run,
// so concurrent calls on the same topic never interleave. Reads and
// broadcasts go straight to the membership store and may observe a snapshot
// that is slightly behind in-flight mutations.
//
// Usage:
//
//	store := membership.NewStore(groups.NewMemory(), "chat")
//	reg := topics.NewRegistry(store)
//	go reg.Run(ctx)
//
//	inbox := endpoint.NewMailbox(64)
//	if err := reg.Subscribe(ctx, inbox, "room:1"); err != nil {
//		return err
//	}
//	_ = reg.Broadcast(ctx, "room:1", []byte("hi"))
//	msg := <-inbox.Receive()
package topics
