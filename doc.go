// Package changestream provides a resumable change-stream cursor for a
// document-store driver.
//
// A ResumableCursor presents a continuous, ordered stream of decoded change
// events over an underlying server-side aggregation cursor (a BatchCursor),
// transparently re-establishing the aggregation after certain transient
// server/network failures while preserving event ordering. It does not open
// sockets, encode or decode wire messages, or authenticate — those are the
// job of the BatchCursor and OperationDescriptor collaborators a caller
// supplies (see mongoadapter for a concrete binding against
// go.mongodb.org/mongo-driver/v2).
//
// Usage:
//
//	op := changestream.NewDescriptor(executor, decodeOrder)
//	cursor, err := changestream.Open[Order](ctx, binding, op)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cursor.Close(ctx)
//
//	for {
//	    orders, err := cursor.Next(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, o := range orders {
//	        fmt.Println(o)
//	    }
//	}
//
// The cursor does not guarantee exactly-once delivery: server replay after a
// resume may redeliver events the caller has already consumed when the
// caller does not supply its own resume token.
package changestream
