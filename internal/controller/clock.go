package controller

import "time"

// Millis is a device uptime timestamp in milliseconds. It is deliberately
// 32 bits wide, matching the firmware uptime counter it replaces: the counter
// wraps after ~49.7 days and unsigned subtraction keeps elapsed-time math
// correct across a single wrap. Uptime beyond a second wrap within one
// continuous run is out of scope.
type Millis uint32

// Sub returns the duration elapsed from earlier to m using single-wrap
// unsigned arithmetic.
func (m Millis) Sub(earlier Millis) time.Duration {
	return time.Duration(uint32(m-earlier)) * time.Millisecond
}

// Seconds reports the timestamp in whole seconds since boot.
func (m Millis) Seconds() uint32 { return uint32(m) / 1000 }

// Clock provides uptime timestamps. It is injected into everything
// time-dependent so tests can simulate time without waiting.
type Clock interface {
	Now() Millis
}

// UptimeClock measures uptime from the moment it was created.
type UptimeClock struct {
	start time.Time
}

func NewUptimeClock() *UptimeClock {
	return &UptimeClock{start: time.Now()}
}

func (c *UptimeClock) Now() Millis {
	return Millis(uint32(time.Since(c.start).Milliseconds()))
}
