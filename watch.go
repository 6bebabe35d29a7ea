package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	oklogrun "github.com/oklog/run"

	"github.com/shazow/wifictl/wifi"
)

// eventPrinter serializes lines written by the watch actors.
type eventPrinter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func (p *eventPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s ", p.now().Format(time.TimeOnly))
	fmt.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}

func sameNotification(a, b wifi.Notification) bool {
	return a.Source == b.Source && a.Code == b.Code && a.InterfaceID == b.InterfaceID && bytes.Equal(a.Data, b.Data)
}

// formatEvent describes an event on one line. Decoded events carry the
// details of the raw notification that follows them.
func formatEvent(e wifi.Event) string {
	switch e := e.(type) {
	case wifi.ConnectionEvent:
		return fmt.Sprintf("%s profile=%q ssid=%q reason=%q", e.Notification, e.Connection.ProfileName, e.Connection.SSID, e.Connection.Reason)
	case wifi.ReasonEvent:
		return fmt.Sprintf("%s reason=%q", e.Notification, e.Reason)
	default:
		return e.Raw().String()
	}
}

// watchInterface prints every event seen on iface until ctx is done. A raw
// notification is skipped when the decoded event for it was just printed.
func watchInterface(ctx context.Context, p *eventPrinter, iface *wifi.Interface, events <-chan wifi.Event) error {
	var decoded *wifi.Notification
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if n, isRaw := e.(wifi.Notification); isRaw {
				if decoded != nil && sameNotification(*decoded, n) {
					decoded = nil
					continue
				}
			} else {
				n := e.Raw()
				decoded = &n
			}
			p.printf("%s: %s", iface.Description(), formatEvent(e))
		case <-ctx.Done():
			return nil
		}
	}
}

// runWatch prints notifications and status changes until ctx is done or the
// process is interrupted. A non-zero rescan interval requests scans on a
// schedule so that network availability changes show up.
func runWatch(ctx context.Context, w io.Writer, c *wifi.Client, selector string, rescan time.Duration) error {
	ifaces, err := selectInterfaces(c, selector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := &eventPrinter{w: w, now: time.Now}

	var g oklogrun.Group
	for _, iface := range ifaces {
		iface := iface
		events, stop := iface.Subscribe()
		g.Add(func() error {
			return watchInterface(ctx, p, iface, events)
		}, func(error) {
			cancel()
			stop()
		})
	}
	{
		updates, stop := c.SubscribeStatus()
		g.Add(func() error {
			for {
				select {
				case s, ok := <-updates:
					if !ok {
						return nil
					}
					p.printf("status: %s", s)
				case <-ctx.Done():
					return nil
				}
			}
		}, func(error) {
			cancel()
			stop()
		})
	}
	if rescan > 0 {
		g.Add(func() error {
			ticker := time.NewTicker(rescan)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := c.Scan(ctx); err != nil {
						p.printf("scan failed: %v", err)
					}
				case <-ctx.Done():
					return nil
				}
			}
		}, func(error) {
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case <-sig:
			case <-ctx.Done():
			}
			return nil
		}, func(error) {
			signal.Stop(sig)
			cancel()
		})
	}

	p.printf("watching %d interface(s), status %s", len(ifaces), c.Status())
	return g.Run()
}
