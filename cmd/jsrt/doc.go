/*
Command jsrt runs two scripts in two contexts of one isolate.

Script A runs first and publishes values through its global exports
object. Those exports are marshalled into the second context, where
script B sees them as peer; every access crosses contexts through
forwarding proxies. B's completion value is printed.

Usage:

	jsrt -a a.js -b b.js [-debug-addr 127.0.0.1:9090]

Engine and logging settings come from the environment (JSRT_*, LOG_*,
DEBUG_*). With a debug address the process keeps serving /health,
/metrics and /contexts until interrupted.
*/
package main
