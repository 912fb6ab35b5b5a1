/*
Package jsrt is the execution-context layer over goja.

An Isolate owns contexts. Each Context wraps its own goja runtime, which is
a realm with its own global object and built-ins, and adds three things:

  - A value cache of built-in constructors, prototype methods, Reflect
    functions, sentinels and bootstrap helpers. Slots fill on first use and
    never change afterwards.
  - A scope stack on the isolate. Enter makes a context current and Exit
    restores the previous one, strictly last in first out.
  - A cross-context registry. Marshalling an object into another context
    yields a forwarding proxy, and marshalling the same object again yields
    the same proxy. Entries are weak on both sides and are removed when the
    proxy's fake target is collected, when either context is disposed, or
    explicitly.

# Usage

	iso := jsrt.NewIsolate(jsrt.WithLogger(log), jsrt.WithMetrics(metrics))
	defer iso.Dispose()

	a, err := iso.NewContext(jsrt.ContextOptions{ExposeConsole: true})
	if err != nil {
		return err
	}
	b, err := iso.NewContext(jsrt.ContextOptions{})
	if err != nil {
		return err
	}

	v, err := a.RunScript(ctx, "a.js", `({ greet(n) { return "hi " + n } })`)
	if err != nil {
		return err
	}
	peer, err := jsrt.MarshalToContext(v, b)
	if err != nil {
		return err
	}
	b.GlobalObject().Set("peer", peer)
	_, err = b.RunScript(ctx, "b.js", `peer.greet("b")`)

An isolate and its contexts are driven from one goroutine at a time.
*/
package jsrt
