// Package capture records a failure and the call stack it happened on.
//
// A Capture is one crash instance: an opaque id, the failure's type and
// message, and its backtrace as a slice of Frames ordered innermost first
// (index 0 is where the panic was raised or the error was returned). The
// index of a frame in that slice never changes and is the key used to
// address the frame across requests.
//
// Each Frame may carry a Binding, the evaluation capability for that frame.
// Go cannot reach the locals of an unwound frame, so bindings are supplied
// by the code that owns the locals:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        c := capture.FromPanic(r,
//	            capture.WithBinding("handleOrder", capture.Locals("order", order, "user", user)),
//	        )
//	        store.Put(debugger.New(c))
//	    }
//	}()
//
// A frame without a binding is normal; evaluation against it reports the
// context as unavailable instead of failing.
package capture
