// Package trace defines the event vocabulary produced by the memory
// instrumentation and a driver that replays a recorded trace into a Handler.
//
// # Contract
//
// Events are consumed strictly in delivery order by a single goroutine.
// Timestamps are non-decreasing as delivered; the driver does not re-check
// them. Every functionExit matches a prior functionEnter.
//
// # Wire Format
//
// A trace is JSON Lines, one event per line:
//
//	{"op":"create","site":[1,9],"id":5,"time":10,"isDom":false}
//	{"op":"lastUse","id":5,"site":[1,12],"time":50}
//	{"op":"unreachableObject","site":[1,20],"id":5,"time":100,"shallowSize":32}
//	{"op":"endExecution","time":150}
//
// Sites are [script, iid] pairs. Blank lines and lines starting with '#'
// are skipped. Unknown ops are decode errors.
//
// Two events carry source-map data rather than analysis input:
// scriptEnter (also delivered to the Handler) and sourceMapping. When the
// driver is given a sourcemap.Map it records both.
//
// endExecution is terminal: the driver stops reading after dispatching it.
package trace
